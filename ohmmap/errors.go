package ohmmap

import "fmt"

func errAccessor(layer string) error {
	return fmt.Errorf("ohmmap: failed to bind accessor for layer %q", layer)
}
