package output

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/crucial707/todo-api/internal/apiclient"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderTable prints a pretty table to w
func RenderTable(w io.Writer, headers []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, WidthMax: 60},
	})
	t.Render()
}

// RenderTodos prints todos as an ID / Title / Description table.
func RenderTodos(w io.Writer, todos []apiclient.Todo) {
	rows := make([][]any, 0, len(todos))
	for _, td := range todos {
		desc := ""
		if td.Description != nil {
			desc = *td.Description
		}
		rows = append(rows, []any{strconv.Itoa(td.ID), td.Title, desc})
	}
	RenderTable(w, []string{"ID", "Title", "Description"}, rows)
}

// JSON pretty-prints v.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
