package handlers

import "html/template"

// The upload and report pages are deliberately plain: one form, a few tables.
var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<title>CorePoint Board Analyzer</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
 body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;max-width:900px;margin:40px auto;padding:0 16px}
 h1{font-size:1.6rem;margin:0 0 12px}
 form{border:1px solid #ddd;padding:16px;border-radius:12px}
 .row{margin:8px 0}
 .btn{padding:10px 16px;border:1px solid #222;border-radius:10px;background:#fff;cursor:pointer}
</style>
<h1>CorePoint Board Analyzer</h1>
<form method="post" action="/v1/reports" enctype="multipart/form-data">
  <div class="row">Upload your CorePoint HTML export:</div>
  <div class="row"><input type="file" name="file" accept=".html,.htm" required></div>
  <div class="row"><button class="btn" type="submit">Analyze</button></div>
</form>
<p style="color:#777;margin-top:10px">Defaults: exclude Completed, Canceled, New Parts Request from age stats. Prices are read from &ldquo;Quoted Price $: &hellip;&rdquo;.</p>
`))

var resultTmpl = template.Must(template.New("result").Parse(`<!doctype html>
<title>CorePoint Report</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
 body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;max-width:1100px;margin:40px auto;padding:0 16px}
 h1{font-size:1.6rem;margin:0 0 12px}
 table{border-collapse:collapse;width:100%;margin:16px 0}
 th,td{border:1px solid #ddd;padding:8px;text-align:left}
 th{background:#f7f7f7}
 .section{margin-top:24px}
 .btn{padding:10px 16px;border:1px solid #222;border-radius:10px;background:#fff;cursor:pointer;text-decoration:none}
</style>
<h1>Report</h1>
{{if .DownloadPath}}<a class="btn" href="{{.DownloadPath}}">Download Excel</a>{{end}}

<div class="section">
<h2>Scope</h2>
<table>
  <tr><th>Scope</th><th>Count</th><th>Average Age (days)</th></tr>
  {{range .Report.ScopeRows}}
  <tr><td>{{.Scope}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .AvgAge}}</td></tr>
  {{end}}
</table>
</div>

<div class="section">
<h2>Lane</h2>
<table>
  <tr><th>Lane</th><th>Count</th><th>Average Age (days)</th></tr>
  {{range .Report.LaneRows}}
  <tr><td>{{.Lane}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .AvgAge}}</td></tr>
  {{end}}
</table>
</div>

<div class="section">
<h2>Quoted Prices</h2>
<table>
  <tr><th>Metric</th><th>Count</th><th>Value</th></tr>
  <tr><td>Total Value</td><td>{{.Report.Quoted.PipelineCount}}</td><td>${{.Report.Quoted.PipelineTotal}}</td></tr>
  <tr><td>Average Value</td><td></td><td>${{printf "%.2f" .Report.Quoted.PipelineAvg}}</td></tr>
  <tr><td>Total Won (Completed)</td><td>{{.Report.Quoted.WonCount}}</td><td>${{.Report.Quoted.WonTotal}}</td></tr>
  <tr><td>Average Won</td><td></td><td>${{printf "%.2f" .Report.Quoted.WonAvg}}</td></tr>
  <tr><td>Total Lost (Canceled)</td><td>{{.Report.Quoted.LostCount}}</td><td>${{.Report.Quoted.LostTotal}}</td></tr>
  <tr><td>Average Lost</td><td></td><td>${{printf "%.2f" .Report.Quoted.LostAvg}}</td></tr>
</table>
</div>
`))
