package handlers

import "fmt"

func errInvalidParam(name string) error {
	return fmt.Errorf("invalid %s parameter", name)
}

func errInvalidQuery(name string) error {
	return fmt.Errorf("invalid %s query parameter", name)
}
