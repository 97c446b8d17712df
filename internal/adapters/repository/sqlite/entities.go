package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/timeposition"
)

// EntityRepository implements usecases.Repository on SQLite. Lists come
// back in insertion order.
type EntityRepository struct {
	db *sql.DB
}

// NewEntityRepository wraps an opened and migrated database.
func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func (r *EntityRepository) CreateTopic(ctx context.Context, t board.Topic) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid topic: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO topics (id, name, color_index, icon, created_at, completed_tasks, bio)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.ColorIndex, t.Icon, toUnix(t.CreatedAt), t.CompletedTasks, t.Bio)
	if isUniqueViolation(err) {
		return board.ErrDuplicateTopic
	}
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (r *EntityRepository) UpdateTopic(ctx context.Context, t board.Topic) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE topics SET name = ?, color_index = ?, icon = ?, created_at = ?, completed_tasks = ?, bio = ?
		WHERE id = ?`,
		t.Name, t.ColorIndex, t.Icon, toUnix(t.CreatedAt), t.CompletedTasks, t.Bio, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	return expectOne(res, board.ErrTopicNotFound)
}

// DeleteTopic removes the topic, its tasks and its milestones in one
// transaction.
func (r *EntityRepository) DeleteTopic(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	if err := expectOne(res, board.ErrTopicNotFound); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE topic_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete topic tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM milestones WHERE topic_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete topic milestones: %w", err)
	}
	return tx.Commit()
}

func (r *EntityRepository) ListTopics(ctx context.Context) ([]board.Topic, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color_index, icon, created_at, completed_tasks, bio
		FROM topics ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var out []board.Topic
	for rows.Next() {
		var t board.Topic
		var created int64
		if err := rows.Scan(&t.ID, &t.Name, &t.ColorIndex, &t.Icon, &created, &t.CompletedTasks, &t.Bio); err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		t.CreatedAt = fromUnix(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *EntityRepository) CreateTask(ctx context.Context, t board.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	if err := r.requireTopic(ctx, t.TopicID); err != nil {
		return err
	}
	completedAt, month, week, day := taskColumns(t)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, topic_id, milestone_id, completed, created_at,
			completed_at, completion_month, completion_week, completion_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.TopicID, nullString(t.MilestoneID), t.Completed, toUnix(t.CreatedAt),
		completedAt, month, week, day)
	if isUniqueViolation(err) {
		return board.ErrDuplicateTask
	}
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *EntityRepository) UpdateTask(ctx context.Context, t board.Task) error {
	completedAt, month, week, day := taskColumns(t)
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, topic_id = ?, milestone_id = ?, completed = ?,
			created_at = ?, completed_at = ?, completion_month = ?, completion_week = ?, completion_day = ?
		WHERE id = ?`,
		t.Title, t.Description, t.TopicID, nullString(t.MilestoneID), t.Completed, toUnix(t.CreatedAt),
		completedAt, month, week, day, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectOne(res, board.ErrTaskNotFound)
}

func (r *EntityRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOne(res, board.ErrTaskNotFound)
}

func (r *EntityRepository) ListTasks(ctx context.Context) ([]board.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, topic_id, milestone_id, completed, created_at,
			completed_at, completion_month, completion_week, completion_day
		FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []board.Task
	for rows.Next() {
		var (
			t                board.Task
			milestoneID      sql.NullString
			created          int64
			completedAt      sql.NullInt64
			month, week, day sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.TopicID, &milestoneID, &t.Completed, &created,
			&completedAt, &month, &week, &day); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		t.MilestoneID = milestoneID.String
		t.CreatedAt = fromUnix(created)
		if completedAt.Valid {
			at := fromUnix(completedAt.Int64)
			t.CompletedAt = &at
		}
		if month.Valid && week.Valid && day.Valid {
			t.Completion = &timeposition.Position{Month: int(month.Int64), Week: int(week.Int64), Day: int(day.Int64)}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *EntityRepository) CreateMilestone(ctx context.Context, m board.Milestone) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid milestone: %w", err)
	}
	if err := r.requireTopic(ctx, m.TopicID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO milestones (id, title, topic_id, created_at, sort_order, kind, month, week)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.TopicID, toUnix(m.CreatedAt), m.Order, string(m.Kind), m.Month, m.Week)
	if isUniqueViolation(err) {
		return board.ErrDuplicateMilestone
	}
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

func (r *EntityRepository) UpdateMilestone(ctx context.Context, m board.Milestone) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET title = ?, topic_id = ?, created_at = ?, sort_order = ?, kind = ?, month = ?, week = ?
		WHERE id = ?`,
		m.Title, m.TopicID, toUnix(m.CreatedAt), m.Order, string(m.Kind), m.Month, m.Week, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	return expectOne(res, board.ErrMilestoneNotFound)
}

func (r *EntityRepository) DeleteMilestone(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return expectOne(res, board.ErrMilestoneNotFound)
}

func (r *EntityRepository) ListMilestones(ctx context.Context) ([]board.Milestone, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, topic_id, created_at, sort_order, kind, month, week
		FROM milestones ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var out []board.Milestone
	for rows.Next() {
		var m board.Milestone
		var created int64
		var kind string
		if err := rows.Scan(&m.ID, &m.Title, &m.TopicID, &created, &m.Order, &kind, &m.Month, &m.Week); err != nil {
			return nil, fmt.Errorf("failed to scan milestone row: %w", err)
		}
		m.CreatedAt = fromUnix(created)
		m.Kind = board.MilestoneKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *EntityRepository) requireTopic(ctx context.Context, id string) error {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM topics WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to look up topic: %w", err)
	}
	if n == 0 {
		return board.ErrTopicNotFound
	}
	return nil
}

func taskColumns(t board.Task) (completedAt, month, week, day any) {
	if t.CompletedAt != nil {
		completedAt = toUnix(*t.CompletedAt)
	}
	if p := t.Completion; p != nil {
		month, week, day = p.Month, p.Week, p.Day
	}
	return completedAt, month, week, day
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
