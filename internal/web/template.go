package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/gpio-scope/internal/chart"
	"github.com/sweeney/gpio-scope/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>GPIO {{.Pin}}</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
canvas { border: 1px solid #ddd; width: 100%; }
.controls button { font-family: monospace; margin-right: 6px; padding: 4px 10px; }
.controls button.active { font-weight: bold; }
#status { color: #888; margin: 0.5em 0; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
</style>
</head>
<body>
<h1 id="title">GPIO {{.Pin}}</h1>
{{if not .Bare}}
<div class="controls">
{{range .Pins}}<button class="pin" data-pin="{{.}}">GPIO {{.}}</button>
{{end}}<button id="start">Start Plot</button>
<button id="stop">Stop Plot</button>
</div>
{{end}}
<div id="status">{{if .Sampling}}sampling{{else}}idle{{end}}</div>
<canvas id="chart" width="720" height="360"></canvas>
{{if not .Bare}}
<table>
<tr><th>MQTT</th><td>{{if .Status.Config.Broker}}{{if .Status.MQTTConnected}}connected{{else}}disconnected{{end}}{{else}}disabled{{end}}</td></tr>
<tr><th>Interval</th><td>{{.Status.Config.IntervalMs}}ms</td></tr>
<tr><th>Backend</th><td>{{.Status.Config.Backend}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
</table>
<p><a href="/index.json">status</a> <a href="/chart.json">chart.json</a> <a href="/chart.svg">chart.svg</a></p>
{{end}}
<script>
(function() {
  var cfg = {
    xLabel: {{.XLabel}},
    yLabel: {{.YLabel}},
    yMin: {{.YMin}},
    yMax: {{.YMax}},
    minWindow: {{.MinWindow}}
  };
  var canvas = document.getElementById("chart");
  var ctx = canvas.getContext("2d");
  var statusEl = document.getElementById("status");
  var titleEl = document.getElementById("title");
  var frame = null;

  var m = { l: 60, r: 20, t: 20, b: 45 };

  function draw() {
    var w = canvas.width, h = canvas.height;
    var pw = w - m.l - m.r, ph = h - m.t - m.b;
    ctx.clearRect(0, 0, w, h);
    ctx.font = "12px monospace";
    ctx.fillStyle = "#000";
    ctx.strokeStyle = "#000";

    var xMax = frame ? frame.axes.x_max : cfg.minWindow;
    function px(x) { return m.l + pw * x / xMax; }
    function py(y) { return m.t + ph * (cfg.yMax - y) / (cfg.yMax - cfg.yMin); }

    ctx.beginPath();
    ctx.moveTo(m.l, m.t); ctx.lineTo(m.l, m.t + ph); ctx.lineTo(m.l + pw, m.t + ph);
    ctx.stroke();

    ctx.textAlign = "center";
    var step = Math.max(1, Math.ceil(xMax / 10));
    for (var x = 0; x <= xMax; x += step) { ctx.fillText(String(x), px(x), m.t + ph + 16); }
    ctx.fillText(cfg.xLabel, m.l + pw / 2, h - 8);
    ctx.textAlign = "right";
    [0, 1].forEach(function(y) { ctx.fillText(String(y), m.l - 6, py(y) + 4); });
    ctx.save();
    ctx.translate(14, m.t + ph / 2); ctx.rotate(-Math.PI / 2);
    ctx.textAlign = "center"; ctx.fillText(cfg.yLabel, 0, 0);
    ctx.restore();

    if (!frame || frame.samples.length === 0) { return; }
    ctx.strokeStyle = "#1f77b4";
    ctx.lineWidth = 2;
    ctx.beginPath();
    frame.samples.forEach(function(s, i) {
      if (i === 0) { ctx.moveTo(px(s.t), py(s.v)); } else { ctx.lineTo(px(s.t), py(s.v)); }
    });
    ctx.stroke();
    ctx.lineWidth = 1;
  }

  function show(f) {
    frame = f;
    titleEl.textContent = "GPIO " + f.pin;
    statusEl.textContent = f.sampling ? "sampling" : "idle";
    document.querySelectorAll("button.pin").forEach(function(b) {
      b.classList.toggle("active", b.dataset.pin === f.pin);
    });
    draw();
  }

  function refetch() {
    fetch("/chart.json").then(function(r) { return r.json(); }).then(show);
  }

  function onMessage(msg) {
    if (msg.kind === "frame") { show(msg.frame); return; }
    if (!frame) { refetch(); return; }
    if (msg.index < frame.samples.length) { return; }
    if (msg.index > frame.samples.length) { refetch(); return; }
    frame.samples.push(msg.sample);
    frame.axes = msg.axes;
    draw();
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function(e) { onMessage(JSON.parse(e.data)); };
    ws.onclose = function() { setTimeout(connect, 2000); };
  }

  function post(path) {
    fetch(path, { method: "POST" }).then(function(r) {
      if (!r.ok) { r.json().then(function(e) { statusEl.textContent = e.error; }); }
    });
  }

  document.querySelectorAll("button.pin").forEach(function(b) {
    b.addEventListener("click", function() { post("/api/select/" + b.dataset.pin); });
  });
  var start = document.getElementById("start");
  if (start) { start.addEventListener("click", function() { post("/api/start"); }); }
  var stop = document.getElementById("stop");
  if (stop) { stop.addEventListener("click", function() { post("/api/stop"); }); }

  draw();
  connect();
})();
</script>
</body>
</html>
`

type pageData struct {
	Pin       string
	Pins      []string
	Bare      bool
	Sampling  bool
	XLabel    string
	YLabel    string
	YMin      float64
	YMax      float64
	MinWindow float64
	Status    status.Snapshot
	Uptime    time.Duration
}

func (s *Server) pageData() pageData {
	frame := s.frames.Frame()
	snap := s.tracker.Snapshot()

	pins := s.ctrl.Pins()
	names := make([]string, len(pins))
	for i, p := range pins {
		names[i] = p.String()
	}

	return pageData{
		Pin:       frame.Pin,
		Pins:      names,
		Bare:      s.opts.Bare,
		Sampling:  frame.Sampling,
		XLabel:    chart.XLabel,
		YLabel:    chart.YLabel,
		YMin:      chart.YMin,
		YMax:      chart.YMax,
		MinWindow: chart.MinWindow,
		Status:    snap,
		Uptime:    snap.Uptime(),
	}
}

func renderHTML(w io.Writer, data pageData) error {
	return indexTmpl.Execute(w, data)
}
