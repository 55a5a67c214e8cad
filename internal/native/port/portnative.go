// Package port is a minimal async port-actor demo: two natives,
// port-listen, which opens a websocket endpoint and funnels incoming frames
// to a user-supplied handler action, one goroutine per connection bounded
// by an errgroup, and port-close, which shuts such a listener down — demonstrating the native dispatcher ABI's reach into an
// external event source, per spec.md §1's "the full port/IO actor layer is
// out of scope" scoping note.
package port

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/eval"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// Registry owns the evaluator reference since the demo handler is invoked
// as an action for every inbound message, the same re-entry need IF/WHILE
// have.
type Registry struct {
	Nodes  *node.Registry
	Syms   *symbol.Table
	Errors *rerror.Catalog
	Eval   *eval.Evaluator

	upgrader websocket.Upgrader
}

func New(nodes *node.Registry, syms *symbol.Table, errors *rerror.Catalog, ev *eval.Evaluator) *Registry {
	return &Registry{Nodes: nodes, Syms: syms, Errors: errors, Eval: ev}
}

// Instance is one live listener's identity, stored as a HANDLE!'s Data so
// PORT-CLOSE can find and cancel it.
type Instance struct {
	ID     uuid.UUID
	cancel context.CancelFunc
	group  *errgroup.Group
	server *http.Server
}

func (r *Registry) InstallAll(actions *action.Registry, dest pool.NodeID) int {
	listen := []node.ParamSpec{
		{Name: "addr", Class: node.ParamNormal, Types: 1 << cell.KindText},
		{Name: "handler", Class: node.ParamNormal, Types: 1 << cell.KindAction},
	}
	closeParams := []node.ParamSpec{
		{Name: "port", Class: node.ParamNormal, Types: 1 << cell.KindHandle},
	}

	n := 0
	install := func(name string, params []node.ParamSpec, build func(r *Registry) action.Dispatcher) {
		paramlist := r.Nodes.NewParamlist(params)
		actions.Define(paramlist, build(r), pool.InvalidNode)
		sym := r.Syms.Intern(name)
		r.Nodes.AddKey(dest, sym, 0, cell.Cell{
			Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: paramlist},
		})
		n++
	}
	install("port-listen", listen, portListen)
	install("port-close", closeParams, portClose)
	return n
}

func arg(nodes *node.Registry, f *frame.Frame, i int) *cell.Cell {
	return nodes.Array(f.Varlist).At(i)
}

func textOf(nodes *node.Registry, c cell.Cell) string {
	return string(nodes.Text(c.Payload.Node).Bytes())
}

// portListen starts a websocket endpoint at "/" on addr and returns a
// HANDLE! identifying it; every inbound text frame is molded into a TEXT!
// cell and passed as handler's sole argument, with the handler's result (if
// any) written back as a reply frame.
func portListen(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		addr := textOf(r.Nodes, *arg(r.Nodes, f, 1))
		handlerCell := *arg(r.Nodes, f, 2)
		handlerAct, ok := r.Eval.Actions.Lookup(handlerCell.Payload.Node)
		if !ok {
			unwind.Fail(r.Errors.Build("script", "no-value", "port-listen: handler not an action"))
		}

		ctx, cancel := context.WithCancel(context.Background())
		group, gctx := errgroup.WithContext(ctx)
		inst := &Instance{ID: uuid.New(), cancel: cancel, group: group}

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
			r.serveConn(gctx, group, handlerAct, w, req)
		})
		server := &http.Server{Addr: addr, Handler: mux}
		inst.server = server

		group.Go(func() error {
			err := server.ListenAndServe()
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		})

		id := r.Nodes.NewHandle(inst, func(data any) {
			if i, ok := data.(*Instance); ok {
				i.cancel()
				i.server.Close()
			}
		})
		f.Out = cell.Cell{Kind: cell.KindHandle, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
		return action.ResultNormal, unwind.Label{}
	}
}

func (r *Registry) serveConn(ctx context.Context, group *errgroup.Group, handler *action.Action, w http.ResponseWriter, req *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reply := r.dispatchMessage(handler, string(payload))
		if reply != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}
}

// dispatchMessage invokes handler with payload as a TEXT! argument, under a
// one-shot frame the way internal/eval's oneArgFrame does for CHAIN —
// reusing that approach here rather than importing eval's unexported helper
// keeps this package from depending on eval internals beyond Evaluator
// itself.
func (r *Registry) dispatchMessage(handler *action.Action, payload string) string {
	textID := r.Nodes.NewText([]byte(payload), false)
	r.Nodes.Pool.PromoteManaged(textID)
	arg := cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: textID}}

	pl := r.Nodes.Paramlist(handler.Paramlist)
	ctxID := r.Nodes.NewContext(r.Syms, node.ArchFrame, false)
	for _, p := range pl.Params {
		sym := r.Syms.Intern(p.Name)
		r.Nodes.AddKey(ctxID, sym, p.Types<<1, cell.Cell{Kind: cell.KindNulled})
	}
	if len(pl.Params) > 0 {
		cell.Move(r.Nodes.Array(ctxID).At(1), &arg)
	}
	child := &frame.Frame{Phase: handler.Paramlist, Original: handler.Paramlist, Varlist: ctxID}

	r.Eval.Frames.Push(child)
	defer r.Eval.Frames.Pop()
	kind, _ := handler.Dispatch(child)
	if kind != action.ResultNormal || child.Out.Kind != cell.KindText {
		return ""
	}
	return string(r.Nodes.Text(child.Out.Payload.Node).Bytes())
}

func portClose(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		c := *arg(r.Nodes, f, 1)
		h := r.Nodes.Handle(c.Payload.Node)
		h.Fire(c.Payload.Node)
		f.Out.SetNulled()
		return action.ResultNormal, unwind.Label{}
	}
}
