package routes

const (
	// JavaLandingPage is mounted at the root of the Java section.
	JavaLandingPage = "java-overview"
	// JavaAbstractionsPage documents the Java base classes.
	JavaAbstractionsPage = "java-abstractions"
)

var javaTable = MustNew(
	Entry{Path: "", Page: JavaLandingPage},
	Entry{Path: "overview", Page: JavaLandingPage},
	Entry{Path: "abstractions", Page: JavaAbstractionsPage},
)

// Java returns the Transport Java documentation table. It shares the
// not-found page with the TypeScript section.
func Java() *Table { return javaTable }
