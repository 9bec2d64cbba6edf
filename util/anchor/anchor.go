// Package anchor is a small terminal status printer: regular
// lines scroll, while one anchored line at the bottom keeps
// showing what every active lot is currently doing.
package anchor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"atomicgo.dev/cursor"
	"github.com/fatih/color"
)

const (
	Red    = color.FgRed
	Green  = color.FgGreen
	Yellow = color.FgYellow
	Blue   = color.FgBlue
)

type Anchor struct {
	mu       sync.Mutex
	out      io.Writer
	accent   *color.Color
	lots     map[string]string
	order    []string
	anchored bool
}

func New(attributes ...color.Attribute) *Anchor {
	return &Anchor{
		out:    os.Stdout,
		accent: color.New(attributes...),
		lots:   map[string]string{},
	}
}

// Printf emits a scrolling line above the anchored status.
func (anchor *Anchor) Printf(format string, args ...interface{}) {
	anchor.mu.Lock()
	defer anchor.mu.Unlock()
	anchor.scroll(fmt.Sprintf(format, args...))
}

// AnchorPrintf emits an accented scrolling line, used for
// failures worth catching the eye.
func (anchor *Anchor) AnchorPrintf(format string, args ...interface{}) {
	anchor.mu.Lock()
	defer anchor.mu.Unlock()
	anchor.scroll(anchor.accent.Sprintf(format, args...))
}

// Lot returns the named status slot on the anchored line.
func (anchor *Anchor) Lot(name string) *Lot {
	return &Lot{anchor: anchor, name: name}
}

type Lot struct {
	anchor *Anchor
	name   string
}

// Printf updates the lot's slot on the anchored line.
func (lot *Lot) Printf(format string, args ...interface{}) {
	lot.anchor.mu.Lock()
	defer lot.anchor.mu.Unlock()
	if _, ok := lot.anchor.lots[lot.name]; !ok {
		lot.anchor.order = append(lot.anchor.order, lot.name)
	}
	lot.anchor.lots[lot.name] = fmt.Sprintf(format, args...)
	lot.anchor.render()
}

// Wipe clears the lot's slot without a closing line.
func (lot *Lot) Wipe() {
	lot.anchor.mu.Lock()
	defer lot.anchor.mu.Unlock()
	lot.anchor.drop(lot.name)
	lot.anchor.render()
}

// Close clears the slot and prints a closing summary line.
func (lot *Lot) Close(messages ...string) {
	lot.anchor.mu.Lock()
	defer lot.anchor.mu.Unlock()
	lot.anchor.drop(lot.name)
	message := "done"
	if len(messages) > 0 {
		message = strings.Join(messages, " ")
	}
	lot.anchor.scroll(fmt.Sprintf("%s: %s", lot.name, message))
}

func (anchor *Anchor) drop(name string) {
	delete(anchor.lots, name)
	for at, lot := range anchor.order {
		if lot == name {
			anchor.order = append(anchor.order[:at], anchor.order[at+1:]...)
			break
		}
	}
}

// scroll prints one permanent line, pushing the anchored status
// line down underneath it.
func (anchor *Anchor) scroll(line string) {
	anchor.wipe()
	fmt.Fprintln(anchor.out, line)
	anchor.render()
}

func (anchor *Anchor) wipe() {
	if anchor.anchored {
		cursor.StartOfLine()
		cursor.ClearLine()
		anchor.anchored = false
	}
}

func (anchor *Anchor) render() {
	anchor.wipe()
	if len(anchor.order) == 0 {
		return
	}
	slots := make([]string, 0, len(anchor.order))
	for _, name := range anchor.order {
		slots = append(slots, fmt.Sprintf("%s: %s", name, anchor.lots[name]))
	}
	fmt.Fprint(anchor.out, anchor.accent.Sprint("> ")+strings.Join(slots, " | "))
	anchor.anchored = true
}
