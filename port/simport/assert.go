package simport

import "github.com/zakdam/osal-1/port"

var _ port.Port = (*Sim)(nil)
