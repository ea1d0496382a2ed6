package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/beachd/app/beachd/internal/booking"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/lock"
	"github.com/lk2023060901/beachd/app/beachd/internal/metrics"
	"github.com/lk2023060901/beachd/app/beachd/internal/session"
	"github.com/lk2023060901/beachd/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Dispatcher 解析命令行并执行，向连接写出恰好一行响应
type Dispatcher struct {
	booking *booking.Service
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	logger  logger.Logger
	tracer  trace.Tracer
	router  *Router
}

// DispatcherOption 调度器选项
type DispatcherOption func(*Dispatcher)

// WithTracer 每条命令记录一个 Span，默认不记录
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// NewDispatcher 创建命令调度器并注册全部命令
func NewDispatcher(svc *booking.Service, m *metrics.Metrics, l logger.Logger, opts ...DispatcherOption) *Dispatcher {
	if l == nil {
		l = logger.NewNoop()
	}
	d := &Dispatcher{
		booking: svc,
		catalog: svc.Catalog(),
		metrics: m,
		logger:  l.Named("dispatcher"),
		tracer:  noop.NewTracerProvider().Tracer(""),
		router:  NewRouter(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.router.Register("login", Command{MinArgs: 1, MaxArgs: 1, Public: true, Fn: d.login})
	d.router.Register("logout", Command{MinArgs: 0, MaxArgs: 0, Fn: d.logout})
	d.router.Register("book", Command{MinArgs: 0, MaxArgs: 3, Fn: d.book})
	d.router.Register("cancel", Command{MinArgs: 0, MaxArgs: 1, Fn: d.cancel})
	d.router.Register("available", Command{MinArgs: 0, MaxArgs: 2, Fn: d.available})
	d.router.Register("availrow", Command{MinArgs: 1, MaxArgs: 3, Fn: d.availrow})
	d.router.Register("today", Command{Fn: d.date(func() catalog.Date { return d.catalog.Today() })})
	d.router.Register("start", Command{Fn: d.date(func() catalog.Date { return d.catalog.Season().Start })})
	d.router.Register("end", Command{Fn: d.date(func() catalog.Date { return d.catalog.Season().End })})
	return d
}

// Handle 处理一行输入；空行不响应
func (d *Dispatcher) Handle(s *session.Session, line string) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return
	}
	start := time.Now()
	verb, args := tokens[0], tokens[1:]

	label := verb
	if !d.router.Has(verb) {
		label = ReplyUnknown
	}

	ctx, span := d.tracer.Start(context.Background(), "beachd."+label,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("beachd.command", label),
			attribute.Int("beachd.args", len(args)),
			attribute.String("beachd.conn_id", s.ID()),
			attribute.String("beachd.user", s.Identity()),
		),
	)
	defer span.End()

	ctx = logger.ContextWithFields(ctx, "conn_id", s.ID(), "user", s.Identity())
	r := d.router.Dispatch(ctx, s, verb, args)
	span.SetAttributes(attribute.String("beachd.reply", resultOf(r.Line)))
	if d.metrics != nil {
		d.metrics.Command(label, resultOf(r.Line), time.Since(start))
	}
	d.logger.DebugContext(ctx, "command handled", "command", line, "reply", r.Line)

	var err error
	if r.Close {
		err = s.Conn().WriteAndClose(r.Line)
	} else {
		err = s.Conn().WriteLine(r.Line)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write reply failed")
		d.logger.DebugContext(ctx, "write reply failed", "error", err)
	}
}

// resultOf 取响应首个单词作为指标标签
func resultOf(line string) string {
	if i := strings.IndexByte(line, ' '); i > 0 {
		return line[:i]
	}
	return line
}

func (d *Dispatcher) login(ctx context.Context, s *session.Session, args []string) Reply {
	prev := s.Identity()
	s.Login(args[0])
	if prev != "" && prev != args[0] {
		d.logger.InfoContext(ctx, "identity rebound", "previous", prev, "identity", args[0])
	} else {
		d.logger.InfoContext(ctx, "client logged in", "identity", args[0])
	}
	return reply(ReplyOK)
}

func (d *Dispatcher) logout(ctx context.Context, s *session.Session, _ []string) Reply {
	d.booking.ReleaseSession(s)
	d.logger.InfoContext(ctx, "client logged out")
	return Reply{Line: ReplyBye, Close: true}
}

func (d *Dispatcher) book(ctx context.Context, s *session.Session, args []string) Reply {
	if len(args) == 0 {
		d.booking.Begin(s)
		return reply(ReplyOK)
	}

	r, err := d.catalog.ParseResource(args[0])
	if err != nil {
		d.logger.DebugContext(ctx, "bad resource", "error", err)
		return reply(ReplyFailed)
	}

	if len(args) == 1 {
		out, err := d.booking.Select(s, r)
		switch {
		case err != nil:
			d.logger.DebugContext(ctx, "select rejected", "resource", r, "error", err)
			return reply(ReplyFailed)
		case out == lock.Busy:
			return reply(ReplyNotAvailable)
		default:
			return reply(ReplyAvailable)
		}
	}

	_, err = d.booking.Commit(s, r, args[1:])
	switch {
	case err == nil:
		d.recordReservation(metrics.OutcomeDone)
		return reply(ReplyDone)
	case errors.Is(err, booking.ErrConflict):
		d.recordReservation(metrics.OutcomeConflict)
		return reply(ReplyConflict)
	default:
		d.recordReservation(metrics.OutcomeFailed)
		d.logger.DebugContext(ctx, "commit rejected", "resource", r, "error", err)
		return reply(ReplyFailed)
	}
}

func (d *Dispatcher) recordReservation(outcome string) {
	if d.metrics != nil {
		d.metrics.Reservation(outcome)
	}
}

func (d *Dispatcher) cancel(ctx context.Context, s *session.Session, args []string) Reply {
	if len(args) == 0 {
		if err := d.booking.Cancel(s); err != nil {
			return reply(ReplyFailed)
		}
		return reply(ReplyOK)
	}

	r, err := d.catalog.ParseResource(args[0])
	if err != nil {
		return reply(ReplyFailed)
	}
	if _, err := d.booking.CancelReservations(s, r); err != nil {
		d.logger.DebugContext(ctx, "cancel reservations rejected", "resource", r, "error", err)
		return reply(ReplyFailed)
	}
	return reply(ReplyCancelOK)
}

func (d *Dispatcher) available(ctx context.Context, s *session.Session, args []string) Reply {
	ids, err := d.booking.Available(args)
	if err != nil {
		return reply(ReplyFailed)
	}
	return availability(ids)
}

func (d *Dispatcher) availrow(ctx context.Context, s *session.Session, args []string) Reply {
	row, err := d.catalog.ParseRow(args[0])
	if err != nil {
		return reply(ReplyNotAvailable)
	}
	ids, err := d.booking.AvailableRow(row, args[1:])
	switch {
	case errors.Is(err, catalog.ErrUnknownRow):
		return reply(ReplyNotAvailable)
	case err != nil:
		return reply(ReplyFailed)
	}
	return availability(ids)
}

func availability(ids []int) Reply {
	if len(ids) == 0 {
		return reply(ReplyNotAvailable)
	}
	var b strings.Builder
	b.WriteString(ReplyAvailable)
	for _, id := range ids {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(id))
	}
	return reply(b.String())
}

func (d *Dispatcher) date(fn func() catalog.Date) CommandFunc {
	return func(context.Context, *session.Session, []string) Reply {
		return reply(fn().String())
	}
}
