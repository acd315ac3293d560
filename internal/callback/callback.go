// Package callback encodes and decodes inline-button callback data. All
// callback strings are built and parsed here so the bot's dispatch, the
// notifier, and the channel publisher share one codec instead of
// scattered prefix matching.
package callback

import (
	"fmt"
	"strconv"
	"strings"
)

// Action tags what an inline button asks for.
type Action string

const (
	ActionApprove     Action = "approve"      // admin approves a goal
	ActionReject      Action = "reject"       // admin rejects a goal
	ActionJoinGoal    Action = "join_goal"    // user asks to join a goal
	ActionAcceptJoin  Action = "accept_join"  // author accepts a join request
	ActionDeclineJoin Action = "decline_join" // author declines a join request
	ActionStartGoal   Action = "goal_start"
	ActionComplete    Action = "goal_complete"
	ActionDeleteGoal  Action = "goal_delete"
	ActionMembers     Action = "goal_members"
	ActionPublishYes  Action = "publish_yes"
	ActionPublishNo   Action = "publish_no"
	ActionLikeRec     Action = "like_rec"
	ActionDislikeRec  Action = "dislike_rec"
	ActionJoinRec     Action = "join_rec"
	ActionEditProfile Action = "profile_edit" // id carries the field name
	ActionPage        Action = "page"
)

// idActions maps every "<prefix>_<id>" style action, longest prefix first
// so join_goal does not swallow goal_... variants.
var idActions = []Action{
	ActionDeclineJoin,
	ActionAcceptJoin,
	ActionJoinGoal,
	ActionStartGoal,
	ActionComplete,
	ActionDeleteGoal,
	ActionMembers,
	ActionPublishYes,
	ActionPublishNo,
	ActionDislikeRec,
	ActionLikeRec,
	ActionJoinRec,
	ActionEditProfile,
	ActionApprove,
	ActionReject,
}

// Command is one decoded button press.
type Command struct {
	Action Action
	ID     string // entity id for id-carrying actions
	Scope  string // list name for pagination (my_goals, joined_goals, ...)
	Page   int
}

// Encode renders the command back into callback data.
func (c Command) Encode() string {
	if c.Action == ActionPage {
		return fmt.Sprintf("%s_page_%d", c.Scope, c.Page)
	}
	if c.ID == "" {
		return string(c.Action)
	}
	return string(c.Action) + "_" + c.ID
}

// ErrUnknown is returned for callback data this codec does not produce.
var ErrUnknown = fmt.Errorf("unknown callback data")

// Parse decodes callback data into a Command.
func Parse(data string) (Command, error) {
	if scope, page, ok := splitPage(data); ok {
		return Command{Action: ActionPage, Scope: scope, Page: page}, nil
	}

	for _, a := range idActions {
		prefix := string(a) + "_"
		if strings.HasPrefix(data, prefix) {
			id := strings.TrimPrefix(data, prefix)
			if id == "" {
				return Command{}, ErrUnknown
			}
			return Command{Action: a, ID: id}, nil
		}
		if data == string(a) {
			return Command{Action: a}, nil
		}
	}

	return Command{}, ErrUnknown
}

// splitPage recognizes "<scope>_page_<n>". The split keys on the last
// "_page_" so scopes containing underscores stay intact.
func splitPage(data string) (string, int, bool) {
	idx := strings.LastIndex(data, "_page_")
	if idx <= 0 {
		return "", 0, false
	}
	page, err := strconv.Atoi(data[idx+len("_page_"):])
	if err != nil || page < 1 {
		return "", 0, false
	}
	return data[:idx], page, true
}
