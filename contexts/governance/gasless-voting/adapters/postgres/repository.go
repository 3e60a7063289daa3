package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository backs the proposal index with the dashboard's postgres database
// of indexed gasless proposals.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) GetProposal(
	ctx context.Context,
	proposalID string,
	daoDomain string,
	daoAddress string,
) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(proposalID)).
		Where("dao_domain = ?", strings.TrimSpace(daoDomain)).
		Where("dao_address = ?", strings.TrimSpace(daoAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("gasless_repo_get_proposal_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
			"dao_domain", strings.TrimSpace(daoDomain),
		)
	}
	return row.toEntity()
}

func (r *Repository) SaveProposal(ctx context.Context, proposal entities.Proposal) error {
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return r.logError("gasless_repo_encode_proposal_failed", err,
			"proposal_id", strings.TrimSpace(proposal.ProposalID),
		)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"dao_domain":          row.DAODomain,
			"dao_address":         row.DAOAddress,
			"plugin_address":      row.PluginAddress,
			"election_id":         row.ElectionID,
			"end_date":            row.EndDate,
			"expiration_date":     row.ExpirationDate,
			"status":              row.Status,
			"approvers":           row.Approvers,
			"min_tally_approvals": row.MinTallyApprovals,
			"executed":            row.Executed,
			"updated_at":          row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrProposalConflict
		}
		return r.logError("gasless_repo_save_proposal_failed", create.Error,
			"proposal_id", strings.TrimSpace(proposal.ProposalID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/gasless-voting",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("gasless proposal repository operation failed", fields...)
	return err
}

type proposalModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	DAODomain         string    `gorm:"column:dao_domain"`
	DAOAddress        string    `gorm:"column:dao_address"`
	PluginAddress     string    `gorm:"column:plugin_address"`
	ElectionID        *string   `gorm:"column:election_id"`
	EndDate           time.Time `gorm:"column:end_date"`
	ExpirationDate    time.Time `gorm:"column:expiration_date"`
	Status            string    `gorm:"column:status"`
	Approvers         []byte    `gorm:"column:approvers"`
	MinTallyApprovals int       `gorm:"column:min_tally_approvals"`
	Executed          bool      `gorm:"column:executed"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "gasless_proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) (proposalModel, error) {
	approvers, err := json.Marshal(proposal.Approvers)
	if err != nil {
		return proposalModel{}, err
	}
	now := time.Now().UTC()
	row := proposalModel{
		ID:                strings.TrimSpace(proposal.ProposalID),
		DAODomain:         strings.TrimSpace(proposal.DAODomain),
		DAOAddress:        strings.TrimSpace(proposal.DAOAddress),
		PluginAddress:     strings.TrimSpace(proposal.PluginAddress),
		EndDate:           proposal.EndDate.UTC(),
		ExpirationDate:    proposal.ExpirationDate.UTC(),
		Status:            string(proposal.Status),
		Approvers:         approvers,
		MinTallyApprovals: proposal.MinTallyApprovals,
		Executed:          proposal.Executed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if strings.TrimSpace(proposal.ElectionID) != "" {
		electionID := strings.TrimSpace(proposal.ElectionID)
		row.ElectionID = &electionID
	}
	return row, nil
}

func (m proposalModel) toEntity() (entities.Proposal, error) {
	var approvers []string
	if len(m.Approvers) > 0 {
		if err := json.Unmarshal(m.Approvers, &approvers); err != nil {
			return entities.Proposal{}, err
		}
	}
	electionID := ""
	if m.ElectionID != nil {
		electionID = strings.TrimSpace(*m.ElectionID)
	}
	return entities.Proposal{
		ProposalID:        m.ID,
		DAODomain:         m.DAODomain,
		DAOAddress:        m.DAOAddress,
		PluginAddress:     m.PluginAddress,
		ElectionID:        electionID,
		EndDate:           m.EndDate.UTC(),
		ExpirationDate:    m.ExpirationDate.UTC(),
		Status:            entities.ProposalStatus(m.Status),
		Approvers:         approvers,
		MinTallyApprovals: m.MinTallyApprovals,
		Executed:          m.Executed,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProposalIndex = (*Repository)(nil)
