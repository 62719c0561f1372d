package main

import (
	"strconv"
	"strings"
)

type Ints []int64

func (i *Ints) String() string {
	parts := make([]string, len(*i))
	for n, v := range *i {
		parts[n] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ", ")
}

func (i *Ints) Set(value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return err
	}
	*i = append(*i, n)
	return nil
}
