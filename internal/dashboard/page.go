// internal/dashboard/page.go
package dashboard

// indexHTML renders the headline from /ws pushes and shows the relayed feed.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Uniform Detection</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #f5f6f8; }
#headline { font-size: 2rem; font-weight: bold; }
.ok { color: #15803d; } .bad { color: #b91c1c; } .muted { color: #6b7280; }
ul { list-style: none; padding: 0; }
li { margin: .25rem 0; }
img { max-width: 640px; border: 1px solid #ccc; }
</style>
</head>
<body>
<div id="headline" class="muted">Loading...</div>
<div id="stale" class="muted"></div>
<ul>
  <li>Shirt: <span id="shirt">-</span></li>
  <li>Pants: <span id="pants">-</span></li>
  <li>Uniform: <span id="uniform">-</span></li>
</ul>
<img src="/video_feed" alt="Live feed">
<script>
function yesNo(b) { return b ? "Detected" : "Not Detected"; }
function render(s) {
  var h = document.getElementById("headline");
  h.textContent = s.headline;
  h.className = s.loading ? "muted" : (s.connectivity.link !== "connected" ? "bad" : (s.status.uniform_detected ? "ok" : "bad"));
  document.getElementById("stale").textContent = s.stale ? "Showing last known status" : "";
  if (!s.loading) {
    document.getElementById("shirt").textContent = yesNo(s.status.shirt_detected);
    document.getElementById("pants").textContent = yesNo(s.status.pants_detected);
    document.getElementById("uniform").textContent = yesNo(s.status.uniform_detected);
  }
}
function connect() {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = function (e) { render(JSON.parse(e.data)); };
  ws.onclose = function () { setTimeout(connect, 2000); };
}
connect();
</script>
</body>
</html>
`
