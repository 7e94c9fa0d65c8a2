// Package resume freezes a reactive graph, together with the DOM listener
// bindings of a rendered page, into a portable snapshot, and rebuilds a live
// graph from that snapshot on another host without re-running any of the
// code that built it.
//
// # Producing host
//
//	ser := resume.NewSerializer(g, resume.WithMaxSize(64<<10))
//	id, _ := ser.RegisterNode(resume.Element{Tag: "button", Attrs: map[string]string{"data-rid": "inc"}},
//	    resume.Listener{Event: "click", HandlerID: "counter.inc"})
//	snap, err := ser.CreateSnapshot(ctx, resume.Meta{Route: "/"})
//	script, err := ser.EmbedInHTML(snap)
//
// # Consuming host
//
//	handlers := resume.NewHandlerRegistry()
//	handlers.Register("counter.inc", func(g *reactive.Graph, ev resume.Event) error {
//	    return g.SetValue("count", ...)
//	})
//	doc, _ := resume.ParseDocument(r)
//	res := resume.NewBootstrap(reactive.NewGraph(), handlers).Resume(ctx, doc)
//	if res.Fallback {
//	    // rebuild the page the slow way
//	}
//
// Elements are matched across hosts by Fingerprint, which both sides compute
// from the tag name and the element's data-* attributes. Renderers should
// emit a data-rid attribute on every element that carries listeners.
package resume
