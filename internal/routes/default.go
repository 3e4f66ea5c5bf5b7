package routes

const (
	// LandingPage is mounted at the section root.
	LandingPage = "overview"
	// NotFoundPage is mounted for any segment the table does not declare.
	NotFoundPage = "not-found"
)

// Each declared segment is a stable entry point: renaming or removing one
// breaks published links.
var defaultTable = MustNew(
	Entry{Path: "", Page: LandingPage},
	Entry{Path: "overview", Page: LandingPage},
	Entry{Path: "importing", Page: "importing"},
	Entry{Path: "initializing", Page: "initializing"},
	Entry{Path: "hello-world", Page: "hello-world"},
	Entry{Path: "building-services", Page: "building-services"},
	Entry{Path: "calling-services", Page: "calling-services"},
	Entry{Path: "advanced-messaging", Page: "advanced-messaging"},
	Entry{Path: "transactions", Page: "transactions"},
	Entry{Path: "logging", Page: "logging"},
	Entry{Path: "broker-overview", Page: "broker-overview"},
	Entry{Path: "connecting-broker", Page: "connecting-broker"},
	Entry{Path: "multiple-brokers", Page: "multiple-brokers"},
	Entry{Path: "extending-channels", Page: "extending-channels"},
	Entry{Path: "store-basics", Page: "store-basics"},
	Entry{Path: "store-advanced", Page: "store-advanced"},
	Entry{Path: "iframes", Page: "iframes"},
	Entry{Path: "abstractions", Page: "abstractions"},
)

// Default returns the Transport TypeScript documentation table.
func Default() *Table { return defaultTable }
