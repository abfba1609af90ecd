package postgres

import (
	"fmt"
	"strings"

	"github.com/taskward/taskward/internal/store"
)

// taskSortColumns whitelists the columns a caller may sort task listings by.
// Anything else silently falls back to created_at so that filter input can
// never reach the ORDER BY clause verbatim.
var taskSortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"due_date":   "due_date",
	"priority":   "priority",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// condBuilder accumulates WHERE conditions with sequentially numbered
// placeholders.
type condBuilder struct {
	conds []string
	args  []any
}

// add appends a condition. Occurrences of "?" in cond are replaced with the
// next positional placeholder, one per argument.
func (b *condBuilder) add(cond string, args ...any) {
	for _, a := range args {
		b.args = append(b.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(b.args)), 1)
	}
	b.conds = append(b.conds, cond)
}

func (b *condBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// buildTaskListQuery renders a store.TaskFilter into a SELECT statement and
// its arguments. Filters compose by conjunction; each one is independently
// optional.
func buildTaskListQuery(filter store.TaskFilter) (string, []any) {
	b := &condBuilder{}

	switch {
	case filter.OnlyDeleted:
		b.add("deleted_at IS NOT NULL")
	case filter.IncludeDeleted:
		// no deletion constraint
	default:
		b.add("deleted_at IS NULL")
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		b.add("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	if filter.Status != nil {
		b.add("status = ?", int(*filter.Status))
	}

	if filter.DueAfter != nil {
		b.add("due_date >= ?", *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		b.add("due_date <= ?", *filter.DueBefore)
	}

	if filter.Assignable != nil {
		b.add("assignable_kind = ? AND assignable_id = ?",
			string(filter.Assignable.Kind), filter.Assignable.ID)
	}
	if filter.Creator != nil {
		b.add("creator_kind = ? AND creator_id = ?",
			string(filter.Creator.Kind), filter.Creator.ID)
	}
	if filter.Updater != nil {
		b.add("updater_kind = ? AND updater_id = ?",
			string(filter.Updater.Kind), filter.Updater.ID)
	}

	sortCol, ok := taskSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if filter.SortDir == store.SortAsc {
		direction = "ASC"
	}

	query := "SELECT " + taskColumns + " FROM tasks" + b.where() +
		fmt.Sprintf(" ORDER BY %s %s", sortCol, direction)

	if filter.Limit > 0 {
		b.args = append(b.args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}
	if filter.Offset > 0 {
		b.args = append(b.args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(b.args))
	}

	return query, b.args
}
