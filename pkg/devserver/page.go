package devserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
)

// clientScript wires the page to the dispatch route and the checkpoint
// stream.
const clientScript = `(function () {
  document.addEventListener('click', function (e) {
    var el = e.target.closest('[data-rid]');
    if (!el) return;
    fetch('/dispatch/' + el.dataset.rid + '/click', {method: 'POST'});
  });
  var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  var ws = new WebSocket(proto + '//' + location.host + '/checkpoints');
  ws.onmessage = function (e) {
    var cp = JSON.parse(e.data);
    document.querySelectorAll('[data-bind]').forEach(function (el) {
      var v = cp.values[el.dataset.bind];
      if (v !== undefined) el.textContent = v;
    });
  };
})();`

func renderPage(title, body, stateScript string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
%s
<script>%s</script>
</body>
</html>
`, html.EscapeString(title), body, stateScript, clientScript)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonUnmarshal decodes a single JSON value and rejects trailing data.
func jsonUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
