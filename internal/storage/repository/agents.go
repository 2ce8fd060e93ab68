package repository

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage"
)

// GetAgentConfig возвращает настройку AI-агента пользователя или nil, если её нет.
func (s *Storage) GetAgentConfig(ctx context.Context, accountID int64) (*models.AIAgentConfig, error) {
	const op = "storage.GetAgentConfig"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, account_id, agent_name, model, enabled, created_at
			  FROM ai_agent_configs
			  WHERE account_id = $1`
	var c models.AIAgentConfig
	err := s.exec(ctx).QueryRowContext(ctx, query, accountID).Scan(
		&c.ID, &c.AccountID, &c.AgentName, &c.Model, &c.Enabled, &c.CreatedAt)
	if err != nil {
		err = wrapErr(op, err)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// CountAgentConfigs считает настройки AI-агентов.
func (s *Storage) CountAgentConfigs(ctx context.Context) (int, error) {
	const op = "storage.CountAgentConfigs"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_agent_configs`).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}
