package qdev

// OptionBag is the flat string-keyed option set device_add and similar
// monitor-style commands are driven by, e.g. {"driver": "blinker",
// "bus": "/", "rate": "500"}.
type OptionBag map[string]string
