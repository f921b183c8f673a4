package domain

import "github.com/samber/lo"

// PresentUser is one entry of the derived presence view.
type PresentUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// DistinctPresent computes "who's here" from the metadata of the currently
// open connections. A user with several tabs or devices appears once; the
// joined/left transitions happen only on the 0->1 and 1->0 connection edges.
func DistinctPresent(metas []ConnectionMetadata) []PresentUser {
	unique := lo.UniqBy(metas, func(m ConnectionMetadata) string {
		return m.UserID
	})
	return lo.Map(unique, func(m ConnectionMetadata, _ int) PresentUser {
		return PresentUser{UserID: m.UserID, Username: m.Username}
	})
}
