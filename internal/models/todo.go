package models

// Todo is one row of the todos table. Description is NULL when not provided.
type Todo struct {
	ID          int     `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description"`
}

// TodoPatch carries the fields of an update; nil fields are left unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
}
