package asora_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAsora(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Asora Suite")
}
