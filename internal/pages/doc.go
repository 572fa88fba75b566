// Package pages renders page sources to HTML documents.
//
// A page is an html/template body with optional front matter. Pages ending
// in .md are converted from markdown after the template runs. The body is
// wrapped by every _layout.html between the page and the routes root, the
// nearest layout innermost, and finally by the document shell.
//
// Template functions available to pages and layouts:
//
//	asset "co2.csv"                      catalog-checked path ("/co2.csv")
//	link "/movies"                       route-checked path
//	chart "bar" "co2.csv" "x" "year" ... chart component
//	dataset "co2.csv"                    parsed CSV (.Header, .Rows)
//	markdown .Text                       markdown to HTML, raw HTML stripped
//
// Every URL a page renders is root-relative. Applying the base path is the
// export's job, so pages render the same in every mode.
package pages
