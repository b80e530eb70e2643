// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command folioctl inspects and toggles portfolio likes through the Folio
// gateway, authenticating with a bearer token instead of the browser cookie.
//
//	folioctl --token $FOLIO_TOKEN status <portfolio-id>
//	folioctl --token $FOLIO_TOKEN toggle <portfolio-id>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
