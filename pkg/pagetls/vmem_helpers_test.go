//go:build unix

package pagetls

import "github.com/joshuapare/pagetls/internal/vmem"

func vmemProtectRW(b []byte) error   { return vmem.Protect(b, vmem.ProtReadWrite) }
func vmemProtectNone(b []byte) error { return vmem.Protect(b, vmem.ProtNone) }
