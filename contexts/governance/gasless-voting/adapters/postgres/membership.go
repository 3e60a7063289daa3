package postgresadapter

import (
	"context"
	"strings"

	"daoboard/contexts/governance/gasless-voting/ports"
)

type multisigMemberModel struct {
	PluginAddress string `gorm:"column:plugin_address;primaryKey"`
	Member        string `gorm:"column:member;primaryKey"`
}

func (multisigMemberModel) TableName() string {
	return "multisig_members"
}

// IsMultisigMember checks the indexed approval-committee membership table.
// Addresses are stored lowercased by the indexer.
func (r *Repository) IsMultisigMember(ctx context.Context, pluginAddress string, member string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&multisigMemberModel{}).
		Where("plugin_address = ?", strings.ToLower(strings.TrimSpace(pluginAddress))).
		Where("member = ?", strings.ToLower(strings.TrimSpace(member))).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("gasless_repo_membership_check_failed", err,
			"plugin_address", strings.TrimSpace(pluginAddress),
		)
	}
	return count > 0, nil
}

var _ ports.MultisigMembership = (*Repository)(nil)
