package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"reversion/internal/models"
	"reversion/internal/repository"
)

// ControlHandler writes operator commands into the same control_commands
// table the Strategy Core's control loop polls every 5s. It never touches
// the Core directly: the poll-and-apply round trip is the only path a
// command takes into the mailbox, by design (see SPEC_FULL.md §4.6).
type ControlHandler struct {
	commands *repository.ControlCommandRepository
}

func NewControlHandler(commands *repository.ControlCommandRepository) *ControlHandler {
	return &ControlHandler{commands: commands}
}

var validCommands = map[string]bool{
	models.CommandPause:   true,
	models.CommandResume:  true,
	models.CommandFlatten: true,
	models.CommandSetMode: true,
}

type setModeBody struct {
	Mode string `json:"mode"`
}

// PostCommand handles POST /control/{command}. set_mode additionally reads
// {"mode": "paper"|"live"} from the request body.
func (h *ControlHandler) PostCommand(w http.ResponseWriter, r *http.Request) {
	command := mux.Vars(r)["command"]
	if !validCommands[command] {
		writeError(w, http.StatusBadRequest, "unknown command")
		return
	}

	cmd := &models.ControlCommand{Command: command}

	if command == models.CommandSetMode {
		var body setModeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Mode != models.ModePaper && body.Mode != models.ModeLive {
			writeError(w, http.StatusBadRequest, "mode must be paper or live")
			return
		}
		cmd.Mode = body.Mode
	}

	if err := h.commands.Enqueue(cmd); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue command")
		return
	}

	writeJSON(w, http.StatusAccepted, SuccessResponse{
		Message: "command queued",
		Data:    cmd,
	})
}
