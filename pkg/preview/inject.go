package preview

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const reloadScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (e) {
    if (e.data === "refresh") {
      location.reload();
    }
  };
})();`

// InjectReload appends the live-reload script to the body of page.
func InjectReload(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return page + "<script>" + reloadScript + "</script>"
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		return page + "<script>" + reloadScript + "</script>"
	}

	script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: reloadScript})
	body.AppendChild(script)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return page + "<script>" + reloadScript + "</script>"
	}
	return buf.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
