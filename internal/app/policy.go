package app

import "github.com/dkeye/Parley/internal/core"

type UnreachableAction int

const (
	NoAction UnreachableAction = iota
	KickMember
)

// Policy decides what happens to a member whose transport refused a frame.
type Policy interface {
	OnUnreachable(member core.MemberSession) UnreachableAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnUnreachable(core.MemberSession) UnreachableAction {
	return KickMember
}
