package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/coregx/rulematch"
)

var _ = Describe("Numeric and prefix compound", func() {
	It("matches a multi-key rule combining a string disjunction with a literal array element", func() {
		r := rulematch.New()
		Expect(r.AddRule("running-instance", []byte(`{
			"detail": {"state": ["initializing", "running"]},
			"resources": ["arn:aws:ec2:us-east-1:012345679012:instance/i-000000aaaaaa00000"]
		}`))).To(Succeed())

		names, err := r.Match([]byte(`{
			"detail": {"state": "running"},
			"resources": ["arn:aws:ec2:us-east-1:012345679012:instance/i-000000aaaaaa00000"]
		}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("running-instance"))
	})
})

var _ = Describe("CIDR match", func() {
	var r *rulematch.Ruler

	BeforeEach(func() {
		r = rulematch.New()
		Expect(r.AddRule("from-subnet", []byte(`{"detail": {"source-ip": [{"cidr": "10.0.0.0/24"}]}}`))).To(Succeed())
	})

	It("matches an address inside the block", func() {
		names, err := r.Match([]byte(`{"detail": {"source-ip": "10.0.0.33"}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("from-subnet"))
	})

	It("does not match an address outside the block", func() {
		names, err := r.Match([]byte(`{"detail": {"source-ip": "10.0.1.33"}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(BeEmpty())
	})
})

var _ = Describe("Array consistency", func() {
	It("rejects a match assembled from fields in different array elements", func() {
		r := rulematch.New()
		Expect(r.AddRule("anna-jones", []byte(`{"employees": {"firstName": ["Anna"], "lastName": ["Jones"]}}`))).To(Succeed())

		names, err := r.Match([]byte(`{"employees": [[
			{"firstName": "Anna", "lastName": "Smith"},
			{"firstName": "Peter", "lastName": "Jones"}
		]]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(BeEmpty())
	})
})

var _ = Describe("Exists and absent", func() {
	var r *rulematch.Ruler

	BeforeEach(func() {
		r = rulematch.New()
		Expect(r.AddRule("has-x", []byte(`{"x": [{"exists": true}]}`))).To(Succeed())
		Expect(r.AddRule("no-x", []byte(`{"x": [{"exists": false}]}`))).To(Succeed())
	})

	It("matches only the absent rule when the field is missing", func() {
		names, err := r.Match([]byte(`{"a": 1}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("no-x"))
	})

	It("matches only the present rule when the field is set", func() {
		names, err := r.Match([]byte(`{"x": "X"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("has-x"))
	})
})

var _ = Describe("Anything-but with prefix", func() {
	var r *rulematch.Ruler

	BeforeEach(func() {
		r = rulematch.New()
		Expect(r.AddRule("not-initializing", []byte(`{"detail": {"state": [{"anything-but": {"prefix": "init"}}]}}`))).To(Succeed())
	})

	It("matches a value without the excluded prefix", func() {
		names, err := r.Match([]byte(`{"detail": {"state": "running"}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("not-initializing"))
	})

	It("does not match a value with the excluded prefix", func() {
		names, err := r.Match([]byte(`{"detail": {"state": "initializing"}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(BeEmpty())
	})
})

var _ = Describe("Wildcard", func() {
	var r *rulematch.Ruler

	BeforeEach(func() {
		r = rulematch.New()
		Expect(r.AddRule("wild", []byte(`{
			"a": [{"wildcard": "*bc"}],
			"b": [{"wildcard": "d*f"}],
			"c": [{"wildcard": "xy*"}]
		}`))).To(Succeed())
	})

	It("matches when every key satisfies its own wildcard", func() {
		names, err := r.Match([]byte(`{"a": "abcbc", "b": "deeeef", "c": "xy"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("wild"))
	})

	It("does not match when the values are scrambled across keys", func() {
		names, err := r.Match([]byte(`{"a": "abcbc", "b": "xy", "c": "deeeef"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(BeEmpty())
	})
})

var _ = Describe("Universal invariants", func() {
	It("leaves the machine empty after add then delete", func() {
		r := rulematch.New()
		rule := []byte(`{"a": ["x"]}`)
		Expect(r.AddRule("a-is-x", rule)).To(Succeed())
		Expect(r.DeleteRule("a-is-x", rule)).To(Succeed())

		names, err := r.Match([]byte(`{"a": "x"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(BeEmpty())
	})

	It("leaves an unrelated rule's matches unchanged after deleting another", func() {
		r := rulematch.New()
		ruleA := []byte(`{"a": ["x"]}`)
		ruleB := []byte(`{"b": ["y"]}`)
		Expect(r.AddRule("a-is-x", ruleA)).To(Succeed())
		Expect(r.AddRule("b-is-y", ruleB)).To(Succeed())
		Expect(r.DeleteRule("a-is-x", ruleA)).To(Succeed())

		names, err := r.Match([]byte(`{"b": "y"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("b-is-y"))
	})

	It("is idempotent under a repeated add of the same rule", func() {
		r1 := rulematch.New()
		r2 := rulematch.New()
		rule := []byte(`{"a": ["x"]}`)

		Expect(r1.AddRule("a-is-x", rule)).To(Succeed())

		Expect(r2.AddRule("a-is-x", rule)).To(Succeed())
		Expect(r2.AddRule("a-is-x", rule)).To(Succeed())

		event := []byte(`{"a": "x"}`)
		names1, err := r1.Match(event)
		Expect(err).NotTo(HaveOccurred())
		names2, err := r2.Match(event)
		Expect(err).NotTo(HaveOccurred())
		Expect(names2).To(Equal(names1))
	})
})
