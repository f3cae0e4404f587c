package router

import "github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"

// Mapping binds an (action, target) pair to an executor method name.
type Mapping struct {
	Action string `json:"action"`
	Target string `json:"target"`
	Method string `json:"method"`
}

// mappings is the static routing table. A pair absent from this table is a
// configuration error at dispatch time, never a retry candidate. Adding a
// platform means adding rows here and registering its executor.
var mappings = []Mapping{
	{Action: "create_task", Target: "trello", Method: "create_card"},
	{Action: "move_task", Target: "trello", Method: "move_card"},
	{Action: "comment_task", Target: "trello", Method: "add_comment"},
	{Action: "create_task", Target: "notion", Method: "create_page"},
	{Action: "update_page", Target: "notion", Method: "update_page"},
	{Action: "archive_page", Target: "notion", Method: "archive_page"},
	{Action: "send_notification", Target: "slack", Method: "post_message"},
	{Action: "upload_file", Target: "drive", Method: "upload_file"},
	{Action: "create_folder", Target: "drive", Method: "create_folder"},
	{Action: "append_row", Target: "sheets", Method: "append_row"},
}

// Lookup resolves the executor method for an (action, target) pair.
func Lookup(action, target string) (Mapping, bool) {
	action = util.NormalizeKey(action)
	target = util.NormalizeKey(target)
	for _, m := range mappings {
		if m.Action == action && m.Target == target {
			return m, true
		}
	}
	return Mapping{}, false
}

// Mappings returns a copy of the routing table.
func Mappings() []Mapping {
	out := make([]Mapping, len(mappings))
	copy(out, mappings)
	return out
}
