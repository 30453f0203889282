package jobstore

import "testing"

func TestJob_ForwardOnlyTransitions(t *testing.T) {
	job := newJob("job-1", "talk.mp3", "/tmp/job-1")

	if !job.SetProcessing() {
		t.Fatalf("queued -> processing should apply")
	}
	if job.SetProcessing() {
		t.Fatalf("processing -> processing should not apply")
	}

	if !job.Complete(map[string]string{"json": "{}"}) {
		t.Fatalf("processing -> complete should apply")
	}
	if job.Fail("late failure") {
		t.Fatalf("complete is terminal; Fail should not apply")
	}
	if job.SetProcessing() {
		t.Fatalf("complete is terminal; SetProcessing should not apply")
	}

	snap := job.Snapshot()
	if snap.Status != StatusComplete {
		t.Fatalf("status: got=%q want=%q", snap.Status, StatusComplete)
	}
	if snap.Error != "" {
		t.Fatalf("error set on completed job: %q", snap.Error)
	}
}

func TestJob_FailIsTerminal(t *testing.T) {
	job := newJob("job-1", "talk.mp3", "/tmp/job-1")
	job.SetProcessing()

	if !job.Fail("boom") {
		t.Fatalf("processing -> error should apply")
	}
	if job.Complete(map[string]string{"json": "{}"}) {
		t.Fatalf("error is terminal; Complete should not apply")
	}

	snap := job.Snapshot()
	if snap.Status != StatusError || snap.Error != "boom" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Outputs != nil {
		t.Fatalf("outputs present on failed job")
	}
}

func TestJob_CompleteRequiresOutputs(t *testing.T) {
	job := newJob("job-1", "talk.mp3", "/tmp/job-1")
	job.SetProcessing()

	if job.Complete(nil) {
		t.Fatalf("Complete with no outputs should not apply")
	}
	if got := job.Snapshot().Status; got != StatusProcessing {
		t.Fatalf("status changed: %q", got)
	}
}

func TestJob_Progress(t *testing.T) {
	job := newJob("job-1", "talk.mp3", "/tmp/job-1")
	job.SetProcessing()

	if got := job.Snapshot().Progress; got != ProgressUnknown {
		t.Fatalf("initial progress: got=%d", got)
	}

	job.SetProgress(42)
	if got := job.Snapshot().Progress; got != 42 {
		t.Fatalf("progress: got=%d want=42", got)
	}

	// Out-of-range values are ignored.
	job.SetProgress(101)
	job.SetProgress(-3)
	if got := job.Snapshot().Progress; got != 42 {
		t.Fatalf("progress after invalid updates: got=%d want=42", got)
	}

	job.Complete(map[string]string{"srt": "1\n"})
	job.SetProgress(10)
	if got := job.Snapshot().Progress; got != 100 {
		t.Fatalf("terminal progress: got=%d want=100", got)
	}
}

func TestJob_SnapshotCopiesOutputs(t *testing.T) {
	job := newJob("job-1", "talk.mp3", "/tmp/job-1")
	job.SetProcessing()
	job.Complete(map[string]string{"json": "{}"})

	snap := job.Snapshot()
	snap.Outputs["json"] = "mutated"

	if got := job.Snapshot().Outputs["json"]; got != "{}" {
		t.Fatalf("snapshot aliases internal outputs: %q", got)
	}
}
