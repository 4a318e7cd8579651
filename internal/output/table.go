package output

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/2389-research/postbox/internal/models"
)

// titleWidth caps the title column in post tables.
const titleWidth = 60

// Table provides table rendering utilities
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a new table writing to w
func NewTable(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{table: table, header: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added
func (t *Table) Len() int {
	return len(t.rows)
}

// Render outputs the table
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	return t.table.Render()
}

// PostsTable builds a table of posts.
func (p *Printer) PostsTable(posts []models.Post) *Table {
	t := NewTable(p.out, []string{"id", "user", "title"})
	for _, post := range posts {
		t.AddRow([]string{
			strconv.Itoa(post.ID),
			"U" + strconv.Itoa(post.UserID),
			Truncate(post.Title, titleWidth),
		})
	}
	return t
}

// PostDetail prints a single post in full.
func (p *Printer) PostDetail(post models.Post) {
	p.Header(post.Title)
	p.Print("%s", post.Body)
	p.Print("")
	p.Print("%s %s   %s %s", p.Dim("Post ID"), p.Bold("#"+strconv.Itoa(post.ID)), p.Dim("User ID"), p.Bold("#"+strconv.Itoa(post.UserID)))
}
