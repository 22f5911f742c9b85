package postgres

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// setBuilder collects "col = $n" assignments for dynamic UPDATEs.
type setBuilder struct {
	sets []string
	args []interface{}
}

func (b *setBuilder) add(col string, val interface{}) {
	b.args = append(b.args, val)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

// next is the placeholder number of the next argument.
func (b *setBuilder) next() int { return len(b.args) + 1 }

func (b *setBuilder) empty() bool { return len(b.sets) == 0 }

func (b *setBuilder) String() string { return strings.Join(b.sets, ", ") }

// whereBuilder collects AND-ed conditions with positional args.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, val interface{}) {
	w.args = append(w.args, val)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// jsonb encodes v for a JSONB column; nil maps and slices become NULL.
func jsonb(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	return data, nil
}
