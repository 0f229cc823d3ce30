package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"foozam/internal/feedback"
	"foozam/internal/filter"
	"foozam/internal/logging"
	"foozam/internal/places"
	"foozam/internal/recognition"
	"foozam/internal/scan"
	"foozam/internal/storage"

	"github.com/spf13/cobra"
)

type scanOptions struct {
	lat, lon     float64
	city         string
	diet         string
	inCity       string
	retries      int
	choose       string
	addToDataset bool
	correctName  string
	correctFrom  string
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Identify the dish in a photo",
		Long: `Send a photo to the recognition service and show the dish, its details
and nearby places serving it.

An ambiguous result lists candidates; pass --choose to pick one. A strong
prediction for a dish the service does not know yet can be added with
--add-to-dataset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "your latitude, enables nearby places")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "your longitude, enables nearby places")
	cmd.Flags().StringVar(&opts.city, "city", "", "your city")
	cmd.Flags().StringVar(&opts.diet, "diet", "", "only show this dietary tag ("+strings.Join(filter.DietOptions, ", ")+")")
	cmd.Flags().StringVar(&opts.inCity, "in-city", "", "only show places in this city")
	cmd.Flags().IntVar(&opts.retries, "retry", 0, "retry a failed recognition up to N times")
	cmd.Flags().StringVar(&opts.choose, "choose", "", "pick this candidate when the result is ambiguous")
	cmd.Flags().BoolVar(&opts.addToDataset, "add-to-dataset", false, "add an unregistered dish to the dataset")
	cmd.Flags().StringVar(&opts.correctName, "correct-name", "", "send a correction with this dish name")
	cmd.Flags().StringVar(&opts.correctFrom, "correct-origin", "", "origin to send with --correct-name")

	return cmd
}

func (o *scanOptions) location(cmd *cobra.Command) *places.Location {
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
		return nil
	}
	return &places.Location{Lat: o.lat, Lon: o.lon, City: o.city}
}

func runScan(rootOpts *RootOptions, opts *scanOptions, path string, cmd *cobra.Command) error {
	app := rootOpts.app
	out := output(rootOpts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read image", err)
	}
	img, err := recognition.NewImage(path, data)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid image", err)
	}

	ctx, session, err := app.authorized(cmd.Context())
	if err != nil {
		return err
	}
	sub := recognition.Submission{Image: img, Location: opts.location(cmd)}
	if session != nil {
		sub.UserID = session.UserID
	}

	machineOpts := []scan.Option{
		scan.WithPlaces(places.NewClient(app.api)),
		scan.WithTimeout(app.cfg.RequestTimeout),
	}
	if app.cfg.R2.Enabled() {
		r2, err := storage.NewR2Client(ctx, app.cfg.R2)
		if err != nil {
			return WrapExitError(ExitCommandError, "object storage", err)
		}
		machineOpts = append(machineOpts, scan.WithUploader(r2))
	}
	m := scan.New(recognition.NewClient(app.api, recognition.Encoding(app.cfg.RecognitionEncoding)), machineOpts...)

	snap, err := m.Submit(ctx, sub)
	if err != nil {
		return err
	}
	for i := 0; i < opts.retries && snap.State == scan.StateFailed; i++ {
		logging.From(ctx).WithField("attempt", i+1).Info("SCAN_RETRY")
		if snap, err = m.Retry(ctx); err != nil {
			return err
		}
	}
	if opts.choose != "" && snap.CanChoose {
		if snap, err = m.ChooseCandidate(ctx, opts.choose, opts.city); err != nil {
			return err
		}
	}
	if opts.addToDataset && snap.CanAddToDataset {
		if snap, err = m.ConfirmAddToDataset(ctx); err != nil {
			return WrapExitError(ExitFailure, "add to dataset", err)
		}
	}

	snap = m.View(filter.Filters{Diet: opts.diet, City: opts.inCity})
	result := scanResult{Snapshot: snap}

	if res, ok := snap.Resolved(); ok && opts.correctName != "" {
		form := feedback.NewForm(feedback.NewClient(app.api), res.RecognitionID, res.DishName)
		_ = form.Update(feedback.Fields{Name: opts.correctName, Origin: opts.correctFrom})
		// failures are logged by the form and do not change the result
		result.Feedback, _ = form.Submit(ctx, sub.UserID)
	}

	if err := out.Success(result); err != nil {
		return err
	}
	if f, ok := snap.Outcome.(*recognition.Failed); ok {
		return NewExitError(ExitFailure, f.Reason)
	}
	return nil
}

type scanResult struct {
	scan.Snapshot
	Feedback feedback.Status `json:"feedback,omitempty"`
}

func (r scanResult) Text(w io.Writer) {
	switch o := r.Outcome.(type) {
	case *recognition.Resolved:
		fmt.Fprintf(w, "%s (%s confidence)\n", o.DishName, o.Confidence.Bucket())
		if origin := o.Origin.String(); origin != "" {
			fmt.Fprintf(w, "  Origin:      %s\n", origin)
		}
		if o.Description != "" {
			fmt.Fprintf(w, "  %s\n", o.Description)
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(w, "  Tags:        %s\n", strings.Join(r.Tags, ", "))
		} else if !(filter.Filters{Diet: r.Filters.Diet}).IsZero() {
			fmt.Fprintf(w, "  Tags:        none match %q\n", r.Filters.Diet)
		}
		if o.Nutrition != nil && o.Nutrition.Calories != "" {
			fmt.Fprintf(w, "  Calories:    %s\n", o.Nutrition.Calories)
		}
		if o.CulturalContext != "" {
			fmt.Fprintf(w, "  Culture:     %s\n", o.CulturalContext)
		}
		for _, p := range r.Places {
			fmt.Fprintf(w, "  - %s, %s", p.Name, p.Address)
			if p.DistanceMeters != nil {
				fmt.Fprintf(w, " (%.0fm)", *p.DistanceMeters)
			}
			fmt.Fprintln(w)
		}
		if r.Feedback != "" {
			fmt.Fprintf(w, "  Feedback:    %s\n", r.Feedback)
		}
	case *recognition.Ambiguous:
		fmt.Fprintln(w, "Not sure which dish this is. Candidates:")
		for _, c := range o.Candidates {
			fmt.Fprintf(w, "  - %s (%.0f%%)\n", c.DishName, float64(c.Confidence))
		}
		fmt.Fprintln(w, "Run again with --choose <name> to pick one.")
	case *recognition.UnregisteredStrongMatch:
		fmt.Fprintf(w, "Looks like %s (%.0f%%), but it is not in our dataset yet.\n", o.PredictedDishName, float64(o.Confidence))
		fmt.Fprintln(w, "Run again with --add-to-dataset to add it.")
	case *recognition.Failed:
		fmt.Fprintf(w, "Recognition failed: %s\n", o.Reason)
		if o.Retryable {
			fmt.Fprintln(w, "Try again with --retry 1.")
		}
	default:
		fmt.Fprintln(w, r.State)
	}
}

// NewDishCommand creates the dish command.
func NewDishCommand(rootOpts *RootOptions) *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "dish <name>",
		Short: "Show what we know about a dish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.app
			ctx, _, err := app.authorized(cmd.Context())
			if err != nil {
				return err
			}
			res, err := recognition.NewClient(app.api, recognition.EncodingJSON).DishDetail(ctx, args[0], city)
			if err != nil {
				return WrapExitError(ExitFailure, "dish lookup", err)
			}
			return output(rootOpts, cmd).Success(scanResult{Snapshot: scan.Snapshot{
				State:   scan.StateResolved,
				Outcome: res,
				Tags:    res.DietTags(),
				Places:  res.Places,
			}})
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city for nearby places")
	return cmd
}

// NewFeedbackCommand creates the feedback command.
func NewFeedbackCommand(rootOpts *RootOptions) *cobra.Command {
	fields := feedback.Fields{}
	cmd := &cobra.Command{
		Use:   "feedback <recognition-id>",
		Short: "Correct a recognition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.app
			ctx, session, err := app.authorized(cmd.Context())
			if err != nil {
				return err
			}
			userID := ""
			if session != nil {
				userID = session.UserID
			}

			form := feedback.NewForm(feedback.NewClient(app.api), args[0], "")
			if err := form.Update(fields); err != nil {
				return err
			}
			status, err := form.Submit(ctx, userID)
			if err != nil {
				return WrapExitError(ExitFailure, "feedback not sent", err)
			}
			return output(rootOpts, cmd).Success(feedbackResult{Status: status})
		},
	}
	cmd.Flags().StringVar(&fields.Name, "name", "", "correct dish name (required)")
	cmd.Flags().StringVar(&fields.Origin, "origin", "", "correct origin or region")
	cmd.Flags().StringSliceVar(&fields.Ingredients, "ingredients", nil, "correct ingredients, comma separated")
	cmd.Flags().StringVar(&fields.Description, "description", "", "correct description")
	return cmd
}

type feedbackResult struct {
	Status feedback.Status `json:"status"`
}

func (r feedbackResult) Text(w io.Writer) {
	fmt.Fprintln(w, "Thanks, your correction was sent.")
}
