package roi

import (
	"fmt"
	"image"
	"strings"
)

// BaseResolution is the resolution the button table is measured at.
var BaseResolution = image.Pt(1280, 720)

// ButtonID names a fixed on-screen control.
type ButtonID int

const (
	ButtonNone ButtonID = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	QuestSkill
	BossQuest
	BossQuestAlt
	AutoBtn
	AcceptQuest
	CancelBtn
	Character
)

var buttonNames = map[ButtonID]string{
	Key1: "key1", Key2: "key2", Key3: "key3", Key4: "key4", Key5: "key5",
	Key6: "key6", Key7: "key7", Key8: "key8", Key9: "key9", Key0: "key0",
	QuestSkill: "quest_skill", BossQuest: "boss_quest", BossQuestAlt: "boss_quest_alt",
	AutoBtn: "auto", AcceptQuest: "accept_quest", CancelBtn: "cancel", Character: "character",
}

// buttons holds base-resolution coordinates.
var buttons = map[ButtonID]image.Point{
	Key1:         {480, 635},
	Key2:         {560, 635},
	Key3:         {635, 635},
	Key4:         {710, 635},
	Key5:         {780, 635},
	QuestSkill:   {860, 635},
	Key6:         {930, 635},
	Key7:         {1000, 635},
	Key8:         {1075, 635},
	Key9:         {1150, 635},
	Key0:         {1225, 635},
	BossQuest:    {850, 40},
	BossQuestAlt: {780, 40},
	AutoBtn:      {970, 510},
	AcceptQuest:  {740, 545},
	CancelBtn:    {525, 590},
	Character:    {45, 30},
}

func (b ButtonID) String() string {
	if n, ok := buttonNames[b]; ok {
		return n
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// Position returns the base-resolution coordinate of b.
func (b ButtonID) Position() (image.Point, bool) {
	p, ok := buttons[b]
	return p, ok
}

// At returns the coordinate of b scaled to a target resolution.
func (b ButtonID) At(target image.Point) (image.Point, error) {
	p, ok := buttons[b]
	if !ok {
		return image.Point{}, fmt.Errorf("unknown button %v", b)
	}
	return Scale(p, BaseResolution, target), nil
}

// Scale maps p from one resolution to another.
func Scale(p, from, to image.Point) image.Point {
	if from.X == 0 || from.Y == 0 {
		return p
	}
	return image.Pt(p.X*to.X/from.X, p.Y*to.Y/from.Y)
}

// ButtonFor maps a hotkey token to its skill bar slot. Digits map to the
// numbered slots; anything else has no on-screen position.
func ButtonFor(hotkey string) (ButtonID, bool) {
	k := strings.TrimSpace(hotkey)
	if len(k) != 1 || k[0] < '0' || k[0] > '9' {
		return ButtonNone, false
	}
	if k[0] == '0' {
		return Key0, true
	}
	return Key1 + ButtonID(k[0]-'1'), true
}

// ParseButton resolves a button by its String name.
func ParseButton(name string) (ButtonID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for id, s := range buttonNames {
		if s == n {
			return id, true
		}
	}
	return ButtonNone, false
}
