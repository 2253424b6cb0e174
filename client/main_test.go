package main

import (
	"testing"

	"github.com/wfunc/scorekeeper/network"
)

func TestParse(t *testing.T) {
	msgID, req, ok := parse("create chess Alice Bob")
	if !ok || msgID != network.MsgTypeCreateSession {
		t.Fatalf("expected create session, got %d ok=%v", msgID, ok)
	}
	create := req.(network.CreateSessionRequest)
	if create.PresetID != "chess" || len(create.Names) != 2 {
		t.Errorf("unexpected request %+v", create)
	}

	msgID, req, _ = parse("score s1 p1 2")
	apply := req.(network.ApplyScoreRequest)
	if msgID != network.MsgTypeApplyScore || apply.OptionIndex != 2 || apply.PlayerID != "p1" {
		t.Errorf("unexpected apply request %+v", apply)
	}

	_, req, _ = parse("create")
	if len(req.(network.CreateSessionRequest).Names) != 0 {
		t.Error("create without names should send an empty roster")
	}

	_, req, _ = parse("sound off")
	if req.(map[string]bool)["sound_enabled"] {
		t.Error("expected sound off")
	}

	if _, _, ok := parse("spin"); ok {
		t.Error("unknown commands are rejected")
	}
}
