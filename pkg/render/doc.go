// Package render projects a snapshot into a static HTML dashboard.
//
// The dashboard is a single self-contained page: the records are embedded
// as a JSON array and drawn client-side by Tabulator, which provides
// sorting and header filters. Rendering is a pure function of the records
// and [Options]; it never looks at the network or the clock.
//
//	records, err := snapshot.ReadFile("src/results.csv")
//	if err != nil {
//	    return err
//	}
//	err = render.DashboardFile("src/index.html", records, render.Options{
//	    Title:       "Statistics Norway packages",
//	    GeneratedAt: time.Now(),
//	})
//
// A custom page can be supplied through [Options.Template]. It is parsed as
// an html/template and receives a [Page].
package render
