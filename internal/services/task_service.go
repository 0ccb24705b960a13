package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pvoloshyn/go-tasklist/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

// lockUserTasks serializes order-mutating operations per user for the
// rest of the transaction. Different users hash to different advisory
// locks and never contend.
func lockUserTasks(ctx context.Context, tx pgx.Tx, userID string) error {
	const lockQuery = `
SELECT pg_advisory_xact_lock(hashtextextended($1, 0))
`
	_, err := tx.Exec(ctx, lockQuery, userID)
	return err
}

func (s *taskServiceImpl) GetTasksByUserID(ctx context.Context, userID string) ([]*models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT id,
       title,
       completed,
       position,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1
ORDER BY position
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := &models.Task{UserID: userID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Completed,
			&task.Position,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("fetched tasks")
	return tasks, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Title) == "" {
		s.logger.Warn().
			Str("user_id", params.UserID).
			Msg("empty task title")
		return nil, ErrInvalidTitle
	}

	now := time.Now()
	task := &models.Task{
		UserID:    params.UserID,
		Title:     params.Title,
		Completed: params.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = lockUserTasks(ctx, tx, task.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to lock user tasks")
		return nil, err
	}

	positions, err := s.selectPositions(ctx, tx, task.UserID)
	if err != nil {
		return nil, err
	}

	existing := make([]int, len(positions))
	for i, p := range positions {
		existing[i] = p.Position
	}
	task.Position = nextPosition(existing)

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   completed,
                   position,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = tx.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Completed,
		task.Position,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Int("position", task.Position).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task := &models.Task{
		ID:     params.ID,
		UserID: params.UserID,
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = lockUserTasks(ctx, tx, task.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to lock user tasks")
		return nil, err
	}

	const selectTaskQuery = `
SELECT title,
       completed,
       position,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err = tx.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Completed,
		&task.Position,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	if params.Title == nil && params.Completed == nil && params.Position == nil {
		s.logger.Warn().
			Str("task_id", task.ID).
			Msg("no fields to update")
		return task, nil
	}

	if params.Title != nil {
		if strings.TrimSpace(*params.Title) == "" {
			return nil, ErrInvalidTitle
		}
		task.Title = *params.Title
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}

	const updatePositionQuery = `
UPDATE tasks
SET position = $1,
    updated_at = $2
WHERE id = $3
`
	now := time.Now()
	if params.Position != nil && *params.Position != task.Position {
		// Moving a task swaps it with whichever task holds the target
		// position, in this same transaction. The client's two-call swap
		// protocol still works: its second call finds both tasks already
		// in place and changes nothing, so a lost second call can no
		// longer leave two tasks on one position.
		positions, err := s.selectPositions(ctx, tx, task.UserID)
		if err != nil {
			return nil, err
		}

		other, ok := swapTarget(positions, task.ID, *params.Position)
		if ok {
			_, err = tx.Exec(ctx, updatePositionQuery, task.Position, now, other.ID)
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("task_id", other.ID).
					Msg("failed to move displaced task")
				return nil, err
			}
			s.logger.Debug().
				Str("task_id", other.ID).
				Int("position", task.Position).
				Msg("moved displaced task")
		}
		task.Position = *params.Position
	}
	task.UpdatedAt = now

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    completed = $2,
    position = $3,
    updated_at = $4
WHERE id = $5 AND user_id = $6
`
	_, err = tx.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Completed,
		task.Position,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = lockUserTasks(ctx, tx, params.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to lock user tasks")
		return err
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := tx.Exec(
		ctx,
		deleteTaskQuery,
		params.ID,
		params.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", params.ID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("task_id", params.ID).
			Str("user_id", params.UserID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	// Renumber the survivors into 0..n-1. A full renumber instead of a
	// position-1 shift also repairs any gap or duplicate that may have
	// crept in earlier.
	positions, err := s.selectPositions(ctx, tx, params.UserID)
	if err != nil {
		return err
	}

	plan := compactionPlan(positions)
	if len(plan) > 0 {
		const updatePositionQuery = `
UPDATE tasks
SET position = $1,
    updated_at = $2
WHERE id = $3
`
		now := time.Now()
		batch := &pgx.Batch{}
		for _, p := range plan {
			batch.Queue(updatePositionQuery, p.Position, now, p.ID)
		}

		err = tx.SendBatch(ctx, batch).Close()
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to renumber tasks")
			return err
		}
		s.logger.Debug().
			Int("renumbered", len(plan)).
			Str("user_id", params.UserID).
			Msg("renumbered tasks")
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	s.logger.Info().
		Str("task_id", params.ID).
		Str("user_id", params.UserID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) selectPositions(ctx context.Context, tx pgx.Tx, userID string) ([]taskPosition, error) {
	const selectPositionsQuery = `
SELECT id,
       position
FROM tasks
WHERE user_id = $1
`
	rows, err := tx.Query(ctx, selectPositionsQuery, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select task positions")
		return nil, err
	}
	defer rows.Close()

	var positions []taskPosition
	for rows.Next() {
		var p taskPosition
		err = rows.Scan(&p.ID, &p.Position)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task position")
			return nil, err
		}
		positions = append(positions, p)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return positions, nil
}
