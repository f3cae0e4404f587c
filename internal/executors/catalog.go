package executors

// methodSpec names one executor method and the params it requires.
type methodSpec struct {
	name     string
	required []string
}

// catalog is the canonical method surface per platform. The simulated
// executor implements it verbatim, and real executors are expected to
// expose the same names so routing stays platform-agnostic.
var catalog = map[string][]methodSpec{
	"trello": {
		{name: "create_card", required: []string{"board", "list", "title"}},
		{name: "move_card", required: []string{"card_id", "list"}},
		{name: "add_comment", required: []string{"card_id", "text"}},
	},
	"notion": {
		{name: "create_page", required: []string{"parent_id", "title"}},
		{name: "update_page", required: []string{"page_id", "properties"}},
		{name: "archive_page", required: []string{"page_id"}},
	},
	"slack": {
		{name: "post_message", required: []string{"channel", "text"}},
	},
	"drive": {
		{name: "upload_file", required: []string{"folder_id", "name", "content"}},
		{name: "create_folder", required: []string{"parent_id", "name"}},
	},
	"sheets": {
		{name: "append_row", required: []string{"spreadsheet_id", "values"}},
	},
}

// Platforms returns every platform in the catalog.
func Platforms() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}
