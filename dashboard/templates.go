package dashboard

// indexTemplate renders the whole dashboard on one page: summary metrics,
// filter form, ratings breakdown, data table, and cover gallery.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Books Dashboard</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
h1 { margin-bottom: 0.25rem; }
.metrics { display: flex; gap: 2rem; margin: 1rem 0; }
.metric { background: #f5f5f5; border-radius: 8px; padding: 0.75rem 1.5rem; }
.metric .value { font-size: 1.5rem; font-weight: 600; }
.metric .label { font-size: 0.8rem; color: #666; }
form.filters { display: flex; flex-wrap: wrap; gap: 1rem; align-items: end; margin: 1rem 0; }
form.filters label { display: block; font-size: 0.8rem; color: #666; }
.bars { max-width: 420px; margin: 1rem 0; }
.bar-row { display: flex; align-items: center; gap: 0.5rem; margin: 2px 0; }
.bar { background: #4a90d9; height: 14px; border-radius: 3px; }
.bin { min-width: 5rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border-bottom: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; }
.gallery { display: grid; grid-template-columns: repeat(auto-fill, minmax(150px, 1fr)); gap: 1rem; }
.gallery figure { margin: 0; text-align: center; }
.gallery img { width: 140px; }
.gallery figcaption { font-size: 0.75rem; }
</style>
</head>
<body>
<h1>Books Dashboard</h1>
<p>{{.Summary.Count}} of {{.Total}} books match the current filters.
<a href="{{.ExportHref}}">Download filtered CSV</a></p>

<div class="metrics">
  <div class="metric"><div class="value">{{.Summary.Count}}</div><div class="label">Books (filtered)</div></div>
  <div class="metric"><div class="value">{{fmtFloat .Summary.AvgPrice}}</div><div class="label">Avg price</div></div>
  <div class="metric"><div class="value">{{fmtFloat .Summary.AvgRating}}</div><div class="label">Avg rating</div></div>
  <div class="metric"><div class="value">{{.Summary.InStock}}</div><div class="label">In stock</div></div>
</div>

<form class="filters" method="get" action="/">
  <div><label for="min_price">Min price</label>
  <input id="min_price" name="min_price" type="number" step="0.5" value="{{.Query.MinPrice}}"></div>
  <div><label for="max_price">Max price</label>
  <input id="max_price" name="max_price" type="number" step="0.5" value="{{.Query.MaxPrice}}"></div>
  <div><label>Ratings</label>
  {{range .Bars}}<label style="display:inline"><input type="checkbox" name="rating" value="{{.Rating}}"{{if index $.Query.Ratings .Rating}} checked{{end}}>{{.Rating}}</label>{{end}}
  </div>
  <div><label for="availability">Availability</label>
  <select id="availability" name="availability">
    <option value="">All</option>
    <option value="in"{{if eq .Query.Availability "in"}} selected{{end}}>In stock</option>
    <option value="out"{{if eq .Query.Availability "out"}} selected{{end}}>Out of stock</option>
  </select></div>
  <div><label for="q">Search title</label>
  <input id="q" name="q" value="{{.Query.Title}}"></div>
  <div><label for="images">Max images</label>
  <input id="images" name="images" type="number" min="0" value="{{.Query.MaxImages}}"></div>
  <div><button type="submit">Apply</button></div>
</form>

<form method="post" action="/upload" enctype="multipart/form-data">
  <label for="file">Replace data with another sink CSV</label>
  <input id="file" name="file" type="file" accept=".csv">
  <button type="submit">Upload</button>
</form>

<h2>Ratings breakdown</h2>
<div class="bars">
{{range .Bars}}
  <div class="bar-row"><span>{{.Rating}}</span><div class="bar" style="width: {{.Percent}}%"></div><span>{{.Count}}</span></div>
{{end}}
</div>

<h2>Price distribution</h2>
{{if .PriceBars}}
<div class="bars">
{{range .PriceBars}}
  <div class="bar-row"><span class="bin">{{.Label}}</span><div class="bar" style="width: {{.Percent}}%"></div><span>{{.Count}}</span></div>
{{end}}
</div>
{{else}}
<p>No priced books in the current selection.</p>
{{end}}

<h2>Filtered data</h2>
<table>
<tr><th>Title</th><th>Price</th><th>Rating</th><th>Availability</th></tr>
{{range .Rows}}
<tr><td>{{.Record.Title}}</td><td>{{fmtFloat .Price}}</td><td>{{fmtRating .Rating}}</td><td>{{.Availability}}</td></tr>
{{end}}
</table>

<h2>Book covers</h2>
<div class="gallery">
{{range .Gallery}}
<figure>
{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.ShortTitle}}">{{end}}
<figcaption>{{.ShortTitle}}</figcaption>
</figure>
{{end}}
</div>
</body>
</html>
`
