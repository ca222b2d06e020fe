package viewmodel

import (
	"slices"
	"strings"

	"github.com/exitravels/backoffice/internal/model"
)

// MessageFilters narrows the message list.
type MessageFilters struct {
	Filters
	UnreadOnly bool `json:"unread_only"`
}

// MessageStats aggregates the whole active message list.
type MessageStats struct {
	Total    int `json:"total"`
	Unread   int `json:"unread"`
	ThisWeek int `json:"this_week"`
}

// MessageView is the displayed message list plus its statistics.
type MessageView struct {
	Items []model.Message `json:"items"`
	Stats MessageStats    `json:"stats"`
}

// ComputeMessageView filters messages by sender name, email or body text and
// the creation-date range, then orders them by creation date.
func ComputeMessageView(active []model.Message, f MessageFilters, dir Direction, env Env) MessageView {
	loc := env.loc()
	q := strings.ToLower(f.Query)

	items := make([]model.Message, 0, len(active))
	for _, m := range active {
		if f.UnreadOnly && m.Read {
			continue
		}
		if q != "" && !matchesMessage(&m, q) {
			continue
		}
		if !f.inRange(m.CreatedAt, loc) {
			continue
		}
		items = append(items, m)
	}
	slices.SortStableFunc(items, func(a, b model.Message) int {
		c := compareInstants(a.CreatedAt, b.CreatedAt)
		if dir != Asc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	weekStart := WeekStart(env.Now, loc)
	st := MessageStats{Total: len(active)}
	for i := range active {
		if !active[i].Read {
			st.Unread++
		}
		if inWeek(active[i].CreatedAt, weekStart) {
			st.ThisWeek++
		}
	}
	return MessageView{Items: items, Stats: st}
}

func matchesMessage(m *model.Message, q string) bool {
	return containsFold(m.LastName, q) ||
		containsFold(m.FirstName, q) ||
		containsFold(m.Email, q) ||
		containsFold(m.Body, q)
}
