// internal/model/round.go
package model

type Round struct {
	ID    int    `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}
