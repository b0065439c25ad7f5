package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/pleimann/multipicture/internal/transition"
)

var transitionDescriptions = map[transition.Kind]string{
	transition.None:       "jump straight to the next screen",
	transition.Random:     "pick a different effect for every scroll",
	transition.Slide:      "screens slide side by side",
	transition.Crossfade:  "the next screen fades over the current one",
	transition.FadeInOut:  "fade out then fade the next screen in",
	transition.ZoomInOut:  "shrink away and grow the next screen",
	transition.Wipe:       "the next screen is revealed by a moving edge",
	transition.Card:       "the current screen lifts off like a card",
	transition.Slide3D:    "slide along a tilted plane",
	transition.Rotation3D: "rotate around the vertical axis",
	transition.Swing:      "swing open like a door",
	transition.Swap:       "screens swap places in depth",
	transition.Cube:       "screens are faces of a turning cube",
}

// SelectTransition asks the user to pick a transition. ok is false when
// the selection was cancelled.
func SelectTransition(current transition.Kind) (transition.Kind, bool, error) {
	kinds := transition.All()
	options := make([]huh.Option[transition.Kind], len(kinds))
	for i, k := range kinds {
		label := fmt.Sprintf("%-12s %s", k, Muted(transitionDescriptions[k]))
		options[i] = huh.NewOption(label, k).Selected(k == current)
	}

	selected := current
	ok, err := runSelect("Select Transition", "Effect used while scrolling between screens (esc to cancel)", options, &selected)
	if err != nil || !ok {
		return current, false, err
	}
	return selected, true, nil
}

// PrintTransitions lists every transition and marks the configured one.
func PrintTransitions(current transition.Kind) {
	fmt.Println()
	fmt.Println(Title("Transitions"))
	fmt.Println()
	for _, k := range transition.All() {
		marker := "  "
		name := ItemStyle.Render(fmt.Sprintf("%-12s", k))
		if k == current {
			marker = CurrentStyle.Render("● ")
			name = CurrentStyle.Render(fmt.Sprintf("%-12s", k))
		}
		fmt.Printf("  %s%s %s\n", marker, name, Muted(transitionDescriptions[k]))
	}
	fmt.Println()
}

// PrintTransitionUpdated shows a success message after set-transition
func PrintTransitionUpdated(configPath string, k transition.Kind) {
	fmt.Println()
	fmt.Println(Success("Transition updated"))
	fmt.Println()
	Field("Config", configPath)
	Field("Transition", k.String())
	fmt.Println()
}
