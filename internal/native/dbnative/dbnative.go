// Package dbnative is a demo native module showing the native-dispatcher
// ABI wrapping an arbitrary host library: four natives (db-open, db-query,
// db-exec, db-close) around database/sql, backed by whichever of the
// registered drivers matches the connection string's scheme.
package dbnative

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// Registry mirrors internal/native's Registry shape, scoped to the
// subsystems this module actually touches — it doesn't need an Evaluator,
// since none of its natives re-enter evaluation.
type Registry struct {
	Nodes  *node.Registry
	Syms   *symbol.Table
	Errors *rerror.Catalog
}

func New(nodes *node.Registry, syms *symbol.Table, errors *rerror.Catalog) *Registry {
	return &Registry{Nodes: nodes, Syms: syms, Errors: errors}
}

type spec struct {
	name   string
	params []node.ParamSpec
	build  func(r *Registry) action.Dispatcher
}

func catalog() []spec {
	return []spec{
		{name: "db-open", params: []node.ParamSpec{
			{Name: "dsn", Class: node.ParamNormal, Types: 1 << cell.KindText},
		}, build: dbOpen},
		{name: "db-query", params: []node.ParamSpec{
			{Name: "db", Class: node.ParamNormal, Types: 1 << cell.KindHandle},
			{Name: "sql", Class: node.ParamNormal, Types: 1 << cell.KindText},
		}, build: dbQuery},
		{name: "db-exec", params: []node.ParamSpec{
			{Name: "db", Class: node.ParamNormal, Types: 1 << cell.KindHandle},
			{Name: "sql", Class: node.ParamNormal, Types: 1 << cell.KindText},
		}, build: dbExec},
		{name: "db-close", params: []node.ParamSpec{
			{Name: "db", Class: node.ParamNormal, Types: 1 << cell.KindHandle},
		}, build: dbClose},
	}
}

// InstallAll registers every demo native as a key in dest, using actions so
// internal/native's action.Registry owns dispatch exactly the way it owns
// the core catalog's.
func (r *Registry) InstallAll(actions *action.Registry, dest pool.NodeID) int {
	n := 0
	for _, s := range catalog() {
		paramlist := r.Nodes.NewParamlist(s.params)
		actions.Define(paramlist, s.build(r), pool.InvalidNode)
		sym := r.Syms.Intern(s.name)
		r.Nodes.AddKey(dest, sym, 0, cell.Cell{
			Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: paramlist},
		})
		n++
	}
	return n
}

func arg(nodes *node.Registry, f *frame.Frame, i int) *cell.Cell {
	return nodes.Array(f.Varlist).At(i)
}

func textOf(nodes *node.Registry, c cell.Cell) string {
	return string(nodes.Text(c.Payload.Node).Bytes())
}

// driverFor maps a connection string's scheme to one of the registered
// drivers. "sqlite:", "postgres://"/"postgresql://", "mysql://", and
// "sqlserver://" are recognized; anything else fails rather than silently
// guessing.
func driverFor(dsn string) (driverName, trimmed string, ok bool) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:"), true
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, true
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", strings.TrimPrefix(dsn, "mysql://"), true
	case strings.HasPrefix(dsn, "sqlserver://"):
		return "sqlserver", dsn, true
	default:
		return "", "", false
	}
}

func dbOpen(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		dsn := textOf(r.Nodes, *arg(r.Nodes, f, 1))
		driverName, conn, ok := driverFor(dsn)
		if !ok {
			unwind.Fail(r.Errors.Build("access", "db-bad-dsn", dsn))
		}
		db, err := sql.Open(driverName, conn)
		if err != nil {
			unwind.Fail(r.Errors.Build("access", "db-open-failed", err.Error()))
		}
		if err := db.Ping(); err != nil {
			db.Close()
			unwind.Fail(r.Errors.Build("access", "db-open-failed", err.Error()))
		}
		id := r.Nodes.NewHandle(db, func(data any) {
			if conn, ok := data.(*sql.DB); ok {
				conn.Close()
			}
		})
		f.Out = cell.Cell{Kind: cell.KindHandle, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
		return action.ResultNormal, unwind.Label{}
	}
}

func dbHandle(r *Registry, c cell.Cell) *sql.DB {
	h := r.Nodes.Handle(c.Payload.Node)
	db, _ := h.Data.(*sql.DB)
	return db
}

func dbQuery(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		db := dbHandle(r, *arg(r.Nodes, f, 1))
		if db == nil {
			unwind.Fail(r.Errors.Build("access", "db-closed"))
		}
		query := textOf(r.Nodes, *arg(r.Nodes, f, 2))
		rows, err := db.Query(query)
		if err != nil {
			unwind.Fail(r.Errors.Build("access", "db-query-failed", err.Error()))
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			unwind.Fail(r.Errors.Build("access", "db-query-failed", err.Error()))
		}

		resultID := r.Nodes.NewArray(0)
		result := r.Nodes.Array(resultID)
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				unwind.Fail(r.Errors.Build("access", "db-query-failed", err.Error()))
			}
			rowID := r.Nodes.NewArray(len(cols))
			row := r.Nodes.Array(rowID)
			for _, v := range vals {
				row.Append(scanCell(r, v))
			}
			r.Nodes.Pool.PromoteManaged(rowID)
			result.Append(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: rowID}})
		}
		if err := rows.Err(); err != nil {
			unwind.Fail(r.Errors.Build("access", "db-query-failed", err.Error()))
		}
		r.Nodes.Pool.PromoteManaged(resultID)
		f.Out = cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: resultID}}
		return action.ResultNormal, unwind.Label{}
	}
}

// scanCell converts a database/sql driver value into a cell, covering the
// handful of scalar kinds a demo module needs — nothing in this rewrite
// asks a query to return anything richer than text/integer/decimal/null.
func scanCell(r *Registry, v any) cell.Cell {
	switch t := v.(type) {
	case nil:
		return cell.Cell{Kind: cell.KindNulled}
	case int64:
		return cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: uint64(t)}}
	case float64:
		return cell.Cell{Kind: cell.KindDecimal, Payload: cell.Payload{A: math.Float64bits(t)}}
	case []byte:
		id := r.Nodes.NewText(t, false)
		r.Nodes.Pool.PromoteManaged(id)
		return cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
	case string:
		id := r.Nodes.NewText([]byte(t), false)
		r.Nodes.Pool.PromoteManaged(id)
		return cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
	case bool:
		a := uint64(0)
		if t {
			a = 1
		}
		return cell.Cell{Kind: cell.KindLogic, Payload: cell.Payload{A: a}}
	default:
		id := r.Nodes.NewText([]byte(fmt.Sprint(t)), false)
		r.Nodes.Pool.PromoteManaged(id)
		return cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
	}
}

func dbExec(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		db := dbHandle(r, *arg(r.Nodes, f, 1))
		if db == nil {
			unwind.Fail(r.Errors.Build("access", "db-closed"))
		}
		stmt := textOf(r.Nodes, *arg(r.Nodes, f, 2))
		res, err := db.Exec(stmt)
		if err != nil {
			unwind.Fail(r.Errors.Build("access", "db-exec-failed", err.Error()))
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = 0
		}
		f.Out = cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: uint64(n)}}
		return action.ResultNormal, unwind.Label{}
	}
}

func dbClose(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		c := *arg(r.Nodes, f, 1)
		h := r.Nodes.Handle(c.Payload.Node)
		h.Fire(c.Payload.Node)
		f.Out.SetNulled()
		return action.ResultNormal, unwind.Label{}
	}
}
