package mece

import (
	"testing"
)

func names(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestQualifiedNameUnderParentAccepted(t *testing.T) {
	v := New()
	out := v.Validate("Machine Learning", nil, []Candidate{
		{Name: "Mathematical Foundations of Machine Learning"},
	})
	if len(out.Accepted) != 1 {
		t.Fatalf("accepted = %v, rejected = %+v", names(out.Accepted), out.Rejected)
	}
}

func TestSubsetNamesConflict(t *testing.T) {
	v := New()
	out := v.Validate("Deep Learning", nil, []Candidate{
		{Name: "Neural Networks"},
		{Name: "Neural Network Architectures"},
	})
	if len(out.Accepted) != 1 || out.Accepted[0].Name != "Neural Networks" {
		t.Fatalf("accepted = %v", names(out.Accepted))
	}
	if len(out.Rejected) != 1 || out.Rejected[0].Name != "Neural Network Architectures" {
		t.Fatalf("rejected = %+v", out.Rejected)
	}
}

func TestDuplicatesRejected(t *testing.T) {
	v := New()
	out := v.Validate("Statistics", nil, []Candidate{
		{Name: "Bayesian Inference"},
		{Name: "bayesian inference"},
	})
	if len(out.Accepted) != 1 {
		t.Fatalf("accepted = %v", names(out.Accepted))
	}
	if out.Rejected[0].Reason == "" {
		t.Fatal("rejection must carry a reason")
	}
}

func TestParentRestatementRejected(t *testing.T) {
	v := New()
	out := v.Validate("Linear Algebra", nil, []Candidate{
		{Name: "Linear Algebra"},
		{Name: "linear  algebra"},
	})
	if len(out.Accepted) != 0 {
		t.Fatalf("accepted = %v", names(out.Accepted))
	}
}

func TestBareQualifierSiblingsCoexist(t *testing.T) {
	v := New()
	out := v.Validate("Probability", nil, []Candidate{
		{Name: "Theory"},
		{Name: "Applications"},
	})
	if len(out.Accepted) != 2 {
		t.Fatalf("accepted = %v, rejected = %+v", names(out.Accepted), out.Rejected)
	}
}

func TestExistingSiblingsBlockOverlap(t *testing.T) {
	v := New()
	out := v.Validate("Deep Learning", []string{"Neural Networks", "Optimization"}, []Candidate{
		{Name: "Neural Network Architectures"},
		{Name: "neural networks"},
		{Name: "Regularization"},
	})
	if len(out.Accepted) != 1 || out.Accepted[0].Name != "Regularization" {
		t.Fatalf("accepted = %v, rejected = %+v", names(out.Accepted), out.Rejected)
	}
	if len(out.Rejected) != 2 {
		t.Fatalf("rejected = %+v", out.Rejected)
	}
}

func TestSiblingRestatingParentIgnored(t *testing.T) {
	// A legacy sibling that reduces to nothing after normalization must
	// not veto every new candidate.
	v := New()
	out := v.Validate("Chemistry", []string{"Chemistry Fundamentals"}, []Candidate{
		{Name: "Organic Chemistry"},
	})
	if len(out.Accepted) != 1 {
		t.Fatalf("accepted = %v, rejected = %+v", names(out.Accepted), out.Rejected)
	}
}

func TestGreedyInputOrderIsDeterministic(t *testing.T) {
	v := New()
	batch := []Candidate{
		{Name: "Graph Algorithms"},
		{Name: "Algorithms on Graphs"},
		{Name: "Dynamic Programming"},
	}
	first := v.Validate("Computer Science", nil, batch)
	for i := 0; i < 10; i++ {
		again := v.Validate("Computer Science", nil, batch)
		if len(again.Accepted) != len(first.Accepted) {
			t.Fatalf("run %d differs: %v vs %v", i, names(again.Accepted), names(first.Accepted))
		}
		for j := range again.Accepted {
			if again.Accepted[j].Name != first.Accepted[j].Name {
				t.Fatalf("order differs at %d", j)
			}
		}
	}
	if first.Accepted[0].Name != "Graph Algorithms" {
		t.Fatalf("earlier candidate must win ties, got %v", names(first.Accepted))
	}
}

func TestPluralsCompareEqual(t *testing.T) {
	v := New()
	out := v.Validate("Linear Algebra", nil, []Candidate{
		{Name: "Matrices"},
		{Name: "Matrix Operations"},
	})
	if len(out.Accepted) != 1 {
		t.Fatalf("accepted = %v", names(out.Accepted))
	}
}

func TestEmptyBatchAndEmptyNames(t *testing.T) {
	v := New()
	out := v.Validate("Physics", nil, nil)
	if len(out.Accepted) != 0 || len(out.Rejected) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	out = v.Validate("Physics", nil, []Candidate{{Name: "   "}})
	if len(out.Accepted) != 0 || len(out.Rejected) != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestZeroAcceptedIsValid(t *testing.T) {
	v := New()
	out := v.Validate("Chemistry", nil, []Candidate{
		{Name: "Chemistry"},
		{Name: "Chemistry Fundamentals"},
	})
	if len(out.Accepted) != 0 {
		t.Fatalf("accepted = %v", names(out.Accepted))
	}
	if len(out.Rejected) != 2 {
		t.Fatalf("rejected = %+v", out.Rejected)
	}
}
