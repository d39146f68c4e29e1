package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ngenohkevin/sysinfo-agent/internal/format"
	"github.com/ngenohkevin/sysinfo-agent/internal/system"
)

const htmlReport = `<html>
<head>
<meta charset="utf-8">
<title>System information{{if .Hostname}} - {{.Hostname}}{{end}}</title>
<style>
h2 {
    border-bottom: 1px solid #CCCCCC;
    margin-top: 20px;
    width: 100%;
}

table {
    border-collapse: separate;
    border-spacing: 5px;
}
</style>
</head><body>
{{if .Hostname}}<h1>{{.Hostname}}</h1>{{end}}
<p>{{.TakenAt}}</p>
<h2>CPU Information</h2><ul>
{{- range .CPU}}
<li>{{upper .Key}}<ul>
    <li>User: {{pct .User}}</li>
    <li>System: {{pct .System}}</li>
    <li>Idle: {{pct .Idle}}</li>
</ul></li>
{{- end}}
</ul>
<h2>Disk Information</h2><ul>
{{- range .Disks}}
<li>{{.Device}}<ul>
    <li>Mount point: {{.Mountpoint}}</li>
    <li>Filesystem: {{.Fstype}}</li>
    <li>Options: {{.Opts}}</li>
    <li>Usage:<ul>
        <li>Total: {{bytes .Usage.Total}}</li>
        <li>Used: {{bytes .Usage.Used}}</li>
        <li>Free: {{bytes .Usage.Free}}</li>
        <li>Percentage used: {{pct .Usage.UsedPercent}}</li>
    </ul></li>
</ul></li>
{{- end}}
</ul>
<h2>Memory Information</h2><ul>
{{- range .Memory}}
<li>{{title .Key}}<ul>
    <li>Total: {{bytes .Total}}</li>
    <li>Free: {{bytes .Free}}</li>
    <li>Used: {{bytes .Used}}</li>
    <li>Percentage used: {{pct .UsedPercent}}</li>
</ul></li>
{{- end}}
</ul>
<h2>Running processes Information</h2><table>
<tr>
    <th>PID</th>
    <th>Name</th>
    <th>User</th>
    <th>Status</th>
    <th>Exec</th>
    <th>Resident Memory</th>
    <th>Virtual Memory</th>
</tr>
{{- range .Processes}}
<tr>
    <td>{{.PID}}</td>
    <td>{{.Name}}</td>
    <td>{{.Username}}</td>
    <td>{{.Status}}</td>
    <td>{{.Exe}}</td>
    <td>{{bytes .Resident}}</td>
    <td>{{bytes .Virtual}}</td>
</tr>
{{- end}}
</table>
</body></html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"bytes": format.Ubytes,
	"pct":   format.Percent,
	"upper": strings.ToUpper,
	"title": titleCase,
}).Parse(htmlReport))

type htmlView struct {
	Hostname  string
	TakenAt   string
	CPU       []system.CPUReading
	Disks     []system.DiskReading
	Memory    []system.NamedMemory
	Processes []system.ProcessReading
}

// HTML renders the full report, including processes, as an HTML document
func HTML(snap *system.Snapshot) ([]byte, error) {
	view := htmlView{
		Hostname:  snap.Hostname,
		TakenAt:   snap.TakenAt.Format(TimeLayout),
		CPU:       snap.CPU,
		Disks:     sortedDisks(snap.Disks),
		Memory:    snap.Memory.Named(),
		Processes: sortedProcesses(snap.Processes),
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
