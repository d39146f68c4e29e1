package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/sysinfo-agent/internal/artifact"
	"github.com/ngenohkevin/sysinfo-agent/internal/relay"
	"github.com/ngenohkevin/sysinfo-agent/internal/system"
)

var takenAt = time.Date(2026, 10, 19, 14, 3, 22, 0, time.UTC)

type fakeSampler struct {
	err   error
	calls int
}

func (f *fakeSampler) CPU(ctx context.Context) ([]system.CPUReading, error) {
	f.calls++
	return []system.CPUReading{{Index: 0, User: 10.0, System: 5.0, Idle: 85.0}}, f.err
}

func (f *fakeSampler) Disks(ctx context.Context) (map[string]system.DiskReading, error) {
	f.calls++
	return map[string]system.DiskReading{
		"/dev/sda1": {
			Partition: system.Partition{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
			Usage:     system.DiskUsage{Total: 2048, Used: 1024, Free: 1024, UsedPercent: 50},
		},
	}, f.err
}

func (f *fakeSampler) Memory(ctx context.Context) (system.Memory, error) {
	f.calls++
	return system.Memory{
		RAM:  system.MemoryReading{Total: 1 << 30, Free: 1 << 29, Used: 1 << 29, UsedPercent: 50},
		Swap: system.MemoryReading{},
	}, f.err
}

func (f *fakeSampler) Snapshot(ctx context.Context) (*system.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &system.Snapshot{
		Hostname: "pi",
		TakenAt:  takenAt,
		CPU:      []system.CPUReading{{Index: 0, User: 10.0, System: 5.0, Idle: 85.0}},
		Processes: map[uint32]system.ProcessReading{
			1: {PID: 1, Name: "init", Username: "root", Exe: "/sbin/init", Resident: 4096, Virtual: 8192},
		},
	}, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeSampler, string) {
	t.Helper()

	dir := t.TempDir()
	conf := filepath.Join(t.TempDir(), "sysinfo.conf")
	require.NoError(t, os.WriteFile(conf, []byte(dir+"\n"), 0644))

	sampler := &fakeSampler{}
	d := New(sampler, artifact.NewStore(conf), relay.TargetJabber)
	d.now = func() time.Time { return takenAt }
	return d, sampler, dir
}

func TestHandle_CPU(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	actions, err := d.Handle(context.Background(), Request{Tag: TagCPU, Requester: "alice", ReplyChannel: "tg"})
	require.NoError(t, err)
	require.Len(t, actions, 1)

	a := actions[0]
	assert.Equal(t, relay.Destination, a.Destination)
	assert.Equal(t, "tg", a.Target)
	assert.Equal(t, "alice", a.Recipient)
	assert.Nil(t, a.Attachment)
	assert.Contains(t, a.Text, "19/10/2026 - 14:03:22")
	assert.Contains(t, a.Text, "User: 10.0")
	assert.Contains(t, a.Text, "Idle: 85.0")
}

func TestHandle_MemAndDisk(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	actions, err := d.Handle(context.Background(), Request{Tag: TagMemory, Requester: "alice"})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, relay.TargetJabber, actions[0].Target)
	assert.Contains(t, actions[0].Text, "--- ram ---")
	assert.Contains(t, actions[0].Text, "Total: 1.0 GiB")

	actions, err = d.Handle(context.Background(), Request{Tag: TagDisk, Requester: "alice"})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].Text, "--- /dev/sda1 ---")
	assert.Contains(t, actions[0].Text, "Free: 1.0 KiB")
}

func TestHandle_Report(t *testing.T) {
	d, _, dir := newTestDispatcher(t)

	actions, err := d.Handle(context.Background(), Request{Tag: TagReport, Requester: "alice", ReplyChannel: "jabber"})
	require.NoError(t, err)
	require.Len(t, actions, 2)

	ack := actions[0]
	assert.Equal(t, "jabber", ack.Target)
	assert.Equal(t, AckMessage, ack.Text)

	mail := actions[1]
	assert.True(t, mail.IsEmail())
	assert.Equal(t, "alice", mail.Recipient)
	assert.Equal(t, ReportSubject, mail.Subject)
	require.NotNil(t, mail.Attachment)
	assert.Equal(t, "sysinfo_19_10_2026_14_03_22.html", mail.Attachment.Filename)
	assert.Equal(t, "text/html", mail.Attachment.MimeType)

	onDisk, err := os.ReadFile(filepath.Join(dir, mail.Attachment.Filename))
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(mail.Attachment.Content)
	require.NoError(t, err)
	assert.Equal(t, onDisk, decoded)
	assert.Contains(t, string(decoded), "<td>/sbin/init</td>")
}

func TestHandle_ReportMissingConfig(t *testing.T) {
	sampler := &fakeSampler{}
	d := New(sampler, artifact.NewStore(filepath.Join(t.TempDir(), "missing.conf")), relay.TargetJabber)

	actions, err := d.Handle(context.Background(), Request{Tag: TagReport, Requester: "alice"})
	assert.Error(t, err)
	assert.Nil(t, actions)

	// Single-metric requests need no file I/O
	actions, err = d.Handle(context.Background(), Request{Tag: TagCPU, Requester: "alice"})
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}

func TestHandle_SamplerFailure(t *testing.T) {
	d, sampler, _ := newTestDispatcher(t)
	sampler.err = errors.New("failed to get cpu times: boom")

	for _, tag := range []Tag{TagCPU, TagMemory, TagDisk, TagReport} {
		actions, err := d.Handle(context.Background(), Request{Tag: tag, Requester: "alice"})
		assert.Error(t, err, tag)
		assert.Nil(t, actions, tag)
	}
}

func TestHandle_Validation(t *testing.T) {
	d, sampler, _ := newTestDispatcher(t)

	_, err := d.Handle(context.Background(), Request{Tag: "uptime", Requester: "alice"})
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = d.Handle(context.Background(), Request{Tag: TagCPU})
	assert.ErrorIs(t, err, ErrMissingRequester)

	_, err = d.Handle(context.Background(), Request{Tag: TagCPU, Requester: "alice", ReplyChannel: "mail"})
	assert.ErrorIs(t, err, ErrUnknownChannel)

	assert.Equal(t, 0, sampler.calls)
}

func TestHandle_FreshSamplePerRequest(t *testing.T) {
	d, sampler, _ := newTestDispatcher(t)

	for i := 0; i < 3; i++ {
		_, err := d.Handle(context.Background(), Request{Tag: TagCPU, Requester: "alice"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, sampler.calls)
}

func TestTags(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	assert.Equal(t, []Tag{TagCPU, TagDisk, TagMemory, TagReport}, d.Tags())
}
