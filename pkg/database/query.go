package database

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the text form used for DATE parameters
const DateLayout = "2006-01-02"

// Date renders t as a DATE parameter. Passing the calendar day as text keeps
// the session time zone from shifting it.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Conditions accumulates AND-ed WHERE predicates and their positional arguments.
//
//	var c database.Conditions
//	c.Add("vc.vehicle_id = $%d", vehicleID)
//	query := base + c.Where() + " ORDER BY vc.date DESC" + c.Limit(10)
//	rows, err := q.QueryxContext(ctx, query, c.Args()...)
type Conditions struct {
	preds []string
	args  []interface{}
}

// Add appends a predicate holding a single %d placeholder for the argument position
func (c *Conditions) Add(pred string, arg interface{}) {
	c.args = append(c.args, arg)
	c.preds = append(c.preds, fmt.Sprintf(pred, len(c.args)))
}

// AddRaw appends a predicate without arguments
func (c *Conditions) AddRaw(pred string) {
	c.preds = append(c.preds, pred)
}

// Contains appends a case-insensitive substring match on column
func (c *Conditions) Contains(column, text string) {
	if text = strings.TrimSpace(text); text != "" {
		c.Add(column+" ILIKE $%d", "%"+likeEscaper.Replace(text)+"%")
	}
}

// Where renders the clause, or an empty string when nothing was added
func (c *Conditions) Where() string {
	if len(c.preds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.preds, " AND ")
}

// Limit binds n as a LIMIT argument. Non-positive n renders nothing.
func (c *Conditions) Limit(n int) string {
	if n <= 0 {
		return ""
	}
	c.args = append(c.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(c.args))
}

// Args returns the bound arguments in placeholder order
func (c *Conditions) Args() []interface{} {
	return c.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
