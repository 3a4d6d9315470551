package content

import (
	"strings"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// likeEscaper escapes LIKE wildcards so Contains terms stay literal
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// whereBuilder accumulates AND-joined conditions and their arguments
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereBuilder) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add(column+" IN ("+placeholders(len(values))+")", toArgs(values)...)
}

func (w *whereBuilder) notIn(column string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add(column+" NOT IN ("+placeholders(len(values))+")", toArgs(values)...)
}

// keys adds the Keys/KeyPatterns OR group and the exclusions
func (w *whereBuilder) keys(column string, q repositories.ReferenceQuery) {
	if q.ExcludeReserved {
		w.add(column + ` NOT LIKE '\_%' ESCAPE '\'`)
	}
	w.notIn(column, q.ExcludeKeys)

	var ors []string
	var args []any
	if len(q.Keys) > 0 {
		ors = append(ors, column+" IN ("+placeholders(len(q.Keys))+")")
		args = append(args, toArgs(q.Keys)...)
	}
	for _, p := range q.KeyPatterns {
		ors = append(ors, column+` LIKE ? ESCAPE '\'`)
		args = append(args, p)
	}
	if len(ors) > 0 {
		w.add("("+strings.Join(ors, " OR ")+")", args...)
	}
}

// values adds the value predicates as one OR group
func (w *whereBuilder) values(column string, ms []repositories.ValueMatch) {
	var ors []string
	var args []any
	for _, m := range ms {
		switch m.Kind {
		case repositories.MatchEquals:
			ors = append(ors, column+" = ?")
			args = append(args, m.Term)
		case repositories.MatchContains:
			if m.Term == "" {
				continue
			}
			ors = append(ors, column+` LIKE ? ESCAPE '\'`)
			args = append(args, containsPattern(m.Term))
		}
	}
	if len(ors) == 0 {
		w.add("1 = 0")
		return
	}
	w.add("("+strings.Join(ors, " OR ")+")", args...)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
