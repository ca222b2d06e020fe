package dashboard

import (
	"time"

	"github.com/google/uuid"
)

// NoticeLevel is the tone of a transient notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short message that disappears on its own after a while.
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Text      string      `json:"text"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func newNotice(level NoticeLevel, text string, now time.Time, ttl time.Duration) Notice {
	return Notice{ID: uuid.NewString(), Level: level, Text: text, ExpiresAt: now.Add(ttl)}
}

// pruneNotices drops expired notices in place.
func pruneNotices(ns []Notice, now time.Time) []Notice {
	kept := ns[:0]
	for _, n := range ns {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	return kept
}

const (
	textDeleted          = "Élément déplacé dans la corbeille."
	textDeleteFailed     = "La suppression a échoué."
	textRestored         = "Élément restauré."
	textRestoreFailed    = "La restauration a échoué."
	textHardDeleted      = "Élément supprimé définitivement."
	textHardDeleteFailed = "La suppression définitive a échoué."
)

// HardDeleteWarning is shown before an irreversible delete is confirmed.
const HardDeleteWarning = "Cette action est irréversible. L'élément sera supprimé définitivement."
