package server

import (
	"context"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/textmirror/internal/script"
)

// CommandSave writes a document back to disk through the configured
// saver. Its single argument is the document URI.
const CommandSave = "textmirror.save"

func (s *Server) executeCommand(_ *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	switch params.Command {
	case CommandSave:
		uri, err := stringArg(params.Arguments, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", CommandSave, err)
		}
		if err := s.docs.Save(context.Background(), uri); err != nil {
			return nil, err
		}
		s.fireHook(script.EventSave, uri)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d: expected string, got %T", i, args[i])
	}
	return s, nil
}
