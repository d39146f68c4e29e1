package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ngenohkevin/sysinfo-agent/internal/relay"
	"github.com/ngenohkevin/sysinfo-agent/internal/report"
	"github.com/ngenohkevin/sysinfo-agent/internal/system"
)

// Tag identifies the kind of request
type Tag string

const (
	TagReport Tag = "report"
	TagCPU    Tag = "cpu"
	TagMemory Tag = "mem"
	TagDisk   Tag = "disk"
)

const (
	// AckMessage is sent back while the full report is built
	AckMessage = "Generating report..."
	// ReportSubject is the subject of the report e-mail
	ReportSubject = "System information report"
)

var (
	ErrUnknownTag       = errors.New("unknown tag")
	ErrUnknownChannel   = errors.New("unknown reply channel")
	ErrMissingRequester = errors.New("requester is required")
)

// Request is an inbound tagged request
type Request struct {
	Tag          Tag    `json:"tag"`
	Requester    string `json:"requester"`
	ReplyChannel string `json:"reply_channel"`
}

// Sampler provides fresh metric readings
type Sampler interface {
	CPU(ctx context.Context) ([]system.CPUReading, error)
	Disks(ctx context.Context) (map[string]system.DiskReading, error)
	Memory(ctx context.Context) (system.Memory, error)
	Snapshot(ctx context.Context) (*system.Snapshot, error)
}

// Archiver persists a rendered report and returns it as an attachment
type Archiver interface {
	Save(html []byte, at time.Time) (*relay.Attachment, error)
}

type handlerFunc func(ctx context.Context, channel string, req Request) ([]relay.Action, error)

// Dispatcher routes tagged requests to their handlers. The handler table is
// fixed at construction.
type Dispatcher struct {
	sampler        Sampler
	archiver       Archiver
	defaultChannel string
	now            func() time.Time
	handlers       map[Tag]handlerFunc
}

// New creates a dispatcher. Requests without a reply channel are answered
// on defaultChannel.
func New(sampler Sampler, archiver Archiver, defaultChannel string) *Dispatcher {
	d := &Dispatcher{
		sampler:        sampler,
		archiver:       archiver,
		defaultChannel: defaultChannel,
		now:            time.Now,
	}

	d.handlers = map[Tag]handlerFunc{
		TagReport: d.handleReport,
		TagCPU:    d.handleCPU,
		TagMemory: d.handleMemory,
		TagDisk:   d.handleDisk,
	}

	return d
}

// Tags returns the supported tags in sorted order
func (d *Dispatcher) Tags() []Tag {
	tags := make([]Tag, 0, len(d.handlers))
	for tag := range d.handlers {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Handle samples fresh metrics for the request and returns the feedback
// actions to relay. On error no actions are returned.
func (d *Dispatcher) Handle(ctx context.Context, req Request) ([]relay.Action, error) {
	if req.Requester == "" {
		return nil, ErrMissingRequester
	}

	handler, ok := d.handlers[req.Tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, req.Tag)
	}

	channel := req.ReplyChannel
	if channel == "" {
		channel = d.defaultChannel
	}
	if !relay.IsInstant(channel) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}

	return handler(ctx, channel, req)
}

func (d *Dispatcher) handleCPU(ctx context.Context, channel string, req Request) ([]relay.Action, error) {
	cpus, err := d.sampler.CPU(ctx)
	if err != nil {
		return nil, err
	}

	snap := &system.Snapshot{TakenAt: d.now(), CPU: cpus}
	return []relay.Action{relay.Text(channel, req.Requester, report.Text(snap, report.SectionCPU))}, nil
}

func (d *Dispatcher) handleMemory(ctx context.Context, channel string, req Request) ([]relay.Action, error) {
	memory, err := d.sampler.Memory(ctx)
	if err != nil {
		return nil, err
	}

	snap := &system.Snapshot{TakenAt: d.now(), Memory: memory}
	return []relay.Action{relay.Text(channel, req.Requester, report.Text(snap, report.SectionMemory))}, nil
}

func (d *Dispatcher) handleDisk(ctx context.Context, channel string, req Request) ([]relay.Action, error) {
	disks, err := d.sampler.Disks(ctx)
	if err != nil {
		return nil, err
	}

	snap := &system.Snapshot{TakenAt: d.now(), Disks: disks}
	return []relay.Action{relay.Text(channel, req.Requester, report.Text(snap, report.SectionDisk))}, nil
}

// handleReport acknowledges on the reply channel and mails the full HTML
// report as an attachment. The two sends are independent.
func (d *Dispatcher) handleReport(ctx context.Context, channel string, req Request) ([]relay.Action, error) {
	snap, err := d.sampler.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	html, err := report.HTML(snap)
	if err != nil {
		return nil, err
	}

	att, err := d.archiver.Save(html, snap.TakenAt)
	if err != nil {
		return nil, err
	}

	return []relay.Action{
		relay.Text(channel, req.Requester, AckMessage),
		relay.Mail(req.Requester, ReportSubject, att),
	}, nil
}
