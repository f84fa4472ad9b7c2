package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/services"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newCoursesCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "courses",
		Aliases: []string{"course", "c"},
		Short:   "Browse and manage races",
	}
	cmd.AddCommand(
		newCoursesListCommand(s),
		newCoursesShowCommand(s),
		newCoursesNearCommand(s),
		newCoursesAddCommand(s),
		newCoursesUpdateCommand(s),
		newCoursesDeleteCommand(s),
	)
	return cmd
}

func printCourses(w io.Writer, courses []models.Course) error {
	t := newTable(w)
	fmt.Fprintln(t, "ID\tNAME\tTYPE\tDATE\tLOCATION\tDEPT\tDISTANCE\tPLACES")
	for _, c := range courses {
		fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			c.ID, c.Name, c.Type, c.Date, c.Location, c.Department, c.Distance,
			c.CurrentParticipants, c.MaxParticipants)
	}
	return t.Flush()
}

func newCoursesListCommand(s *state) *cobra.Command {
	var courseType, department, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List races, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var (
				courses []models.Course
				err     error
			)
			if search != "" {
				courses, err = s.app.courses.SearchCourses(ctx, search)
			} else {
				courses, err = s.app.courses.GetAllCourses(ctx)
			}
			if err != nil {
				return err
			}

			courses = slices.DeleteFunc(courses, func(c models.Course) bool {
				return (courseType != "" && !strings.EqualFold(string(c.Type), courseType)) ||
					(department != "" && c.Department != department)
			})

			return printCourses(cmd.OutOrStdout(), courses)
		},
	}
	cmd.Flags().StringVar(&courseType, "type", "", "Route or Trail")
	cmd.Flags().StringVar(&department, "department", "", "department code, e.g. 75")
	cmd.Flags().StringVarP(&search, "search", "q", "", "text matched against name, location and description")
	return cmd
}

func newCoursesShowCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one race with its registration questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := s.course(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", c.Name, c.ID)
			fmt.Fprintf(out, "  %s, %s - %s - %s\n", c.Location, c.Department, c.Date, c.Type)
			fmt.Fprintf(out, "  Distance: %s\n", c.Distance)
			fmt.Fprintf(out, "  Reward:   %s\n", c.Reward)
			fmt.Fprintf(out, "  Places:   %d/%d\n", c.CurrentParticipants, c.MaxParticipants)
			fmt.Fprintf(out, "  Image:    %s\n", c.Image)
			fmt.Fprintf(out, "\n%s\n", c.Description)

			if len(c.RequiredFields) > 0 {
				fmt.Fprintln(out, "\nRegistration questions:")
				t := newTable(out)
				for _, f := range c.RequiredFields {
					req := "optional"
					if f.Required {
						req = "required"
					}
					fmt.Fprintf(t, "  %s\t%s\t%s\t%s\n", f.ID, f.Label, f.Type, req)
				}
				_ = t.Flush()
			}
			return nil
		},
	}
}

func newCoursesNearCommand(s *state) *cobra.Command {
	var lat, lng, radius float64

	cmd := &cobra.Command{
		Use:   "near",
		Short: "List races within a radius of a point, nearest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if radius < 0 {
				return fmt.Errorf("%w: radius must not be negative", common.ErrorValidation)
			}
			near, err := s.app.courses.GetCoursesNear(cmd.Context(), models.Coordinates{Lat: lat, Lng: lng}, radius)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			fmt.Fprintln(t, "ID\tNAME\tLOCATION\tDISTANCE")
			for _, n := range near {
				fmt.Fprintf(t, "%d\t%s\t%s\t%.1f km\n", n.Course.ID, n.Course.Name, n.Course.Location, n.DistanceKm)
			}
			return t.Flush()
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the center")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude of the center")
	cmd.Flags().Float64Var(&radius, "radius", 50, "search radius in km")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

// courseFlags holds the editable course attributes shared by add and
// update.
type courseFlags struct {
	name, location, department, date, distance, reward, description, image string
	courseType                                                             string
	lat, lng                                                               float64
	maxParticipants, currentParticipants                                   int
}

func (f *courseFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "race name")
	fs.StringVar(&f.location, "location", "", "town")
	fs.StringVar(&f.department, "department", "", "department code")
	fs.StringVar(&f.date, "date", "", "race day, YYYY-MM-DD")
	fs.StringVar(&f.distance, "distance", "", "distance label, e.g. 21.1 km")
	fs.StringVar(&f.reward, "reward", "", "what volunteers get")
	fs.StringVar(&f.description, "description", "", "free text")
	fs.StringVar(&f.image, "image", "", "image reference; derived from the name when empty")
	fs.StringVar(&f.courseType, "type", string(models.CourseTypeRoute), "Route or Trail")
	fs.Float64Var(&f.lat, "lat", 0, "latitude")
	fs.Float64Var(&f.lng, "lng", 0, "longitude")
	fs.IntVar(&f.maxParticipants, "max-participants", 0, "volunteer places")
	fs.IntVar(&f.currentParticipants, "current-participants", 0, "places already taken")
}

func parseCourseType(v string) (models.CourseType, error) {
	for _, t := range []models.CourseType{models.CourseTypeRoute, models.CourseTypeTrail} {
		if strings.EqualFold(v, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown course type %q", common.ErrorValidation, v)
}

func newCoursesAddCommand(s *state) *cobra.Command {
	var f courseFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a race (administrator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := s.requireAdmin(ctx); err != nil {
				return err
			}
			t, err := parseCourseType(f.courseType)
			if err != nil {
				return err
			}

			defaults, err := services.DefaultFields()
			if err != nil {
				return err
			}

			c, err := s.app.courses.AddCourse(ctx, models.NewCourse{
				Name:                f.name,
				Location:            f.location,
				Department:          f.department,
				Date:                f.date,
				Distance:            f.distance,
				Reward:              f.reward,
				Description:         f.description,
				Type:                t,
				Image:               f.image,
				Coordinates:         models.Coordinates{Lat: f.lat, Lng: f.lng},
				MaxParticipants:     f.maxParticipants,
				CurrentParticipants: f.currentParticipants,
				RequiredFields:      defaults,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added course %d: %s\n", c.ID, c.Name)
			return err
		},
	}
	f.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCoursesUpdateCommand(s *state) *cobra.Command {
	var f courseFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change attributes of a race (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseCourseID(args[0])
			if err != nil {
				return err
			}
			if _, err := s.requireAdmin(ctx); err != nil {
				return err
			}

			var p models.CoursePatch
			fs := cmd.Flags()
			strs := map[string]struct {
				dst **string
				val *string
			}{
				"name":        {&p.Name, &f.name},
				"location":    {&p.Location, &f.location},
				"department":  {&p.Department, &f.department},
				"date":        {&p.Date, &f.date},
				"distance":    {&p.Distance, &f.distance},
				"reward":      {&p.Reward, &f.reward},
				"description": {&p.Description, &f.description},
				"image":       {&p.Image, &f.image},
			}
			for name, v := range strs {
				if fs.Changed(name) {
					*v.dst = v.val
				}
			}
			if fs.Changed("type") {
				t, err := parseCourseType(f.courseType)
				if err != nil {
					return err
				}
				p.Type = &t
			}
			if fs.Changed("lat") || fs.Changed("lng") {
				p.Coordinates = &models.Coordinates{Lat: f.lat, Lng: f.lng}
			}
			if fs.Changed("max-participants") {
				p.MaxParticipants = &f.maxParticipants
			}
			if fs.Changed("current-participants") {
				p.CurrentParticipants = &f.currentParticipants
			}

			c, err := s.app.courses.UpdateCourse(ctx, id, p)
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("course %d: %w", id, common.ErrorNotFound)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated course %d: %s\n", c.ID, c.Name)
			return err
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newCoursesDeleteCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a race (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseCourseID(args[0])
			if err != nil {
				return err
			}
			if _, err := s.requireAdmin(ctx); err != nil {
				return err
			}
			ok, err := s.app.courses.DeleteCourse(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("course %d: %w", id, common.ErrorNotFound)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted course %d\n", id)
			return err
		},
	}
}
