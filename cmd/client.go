package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/employee-directory/internal/auth"
	"github.com/frahmantamala/employee-directory/internal/client"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/department"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/spf13/cobra"
)

var clientOpts struct {
	baseURL   string
	tokenFile string
	locale    string
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Terminal client for the directory API",
}

// guardedCmd refuses to run its subcommands until a token is stored.
func guardedCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			if !c.LoggedIn() {
				return errors.New(c.Message(i18n.MsgLoginRequired))
			}
			return nil
		},
	}
}

func newAPIClient() (*client.Client, error) {
	catalog, err := i18n.New(clientOpts.locale)
	if err != nil {
		return nil, err
	}
	tokenFile := clientOpts.tokenFile
	if tokenFile == "" {
		tokenFile = client.DefaultTokenPath()
	}
	return client.New(client.Config{
		BaseURL: clientOpts.baseURL,
		Tokens:  client.NewFileTokenStore(tokenFile),
		Catalog: catalog,
	}), nil
}

// screenError is a message a screen has already rendered for display.
type screenError string

func (e screenError) Error() string { return string(e) }

// runScreen builds the client and reports errors the way the screens show them.
func runScreen(fn func(ctx context.Context, c *client.Client, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := fn(ctx, c, cmd.OutOrStdout()); err != nil {
			var shown screenError
			if errors.As(err, &shown) {
				return shown
			}
			return errors.New(c.ErrorMessage(err))
		}
		return nil
	}
}

func init() {
	pf := clientCmd.PersistentFlags()
	pf.StringVar(&clientOpts.baseURL, "url", "http://localhost:8080/api", "API base URL including the prefix")
	pf.StringVar(&clientOpts.tokenFile, "token-file", "", "where the session token is kept (default ~/.employee-directory/token)")
	pf.StringVar(&clientOpts.locale, "locale", i18n.LocaleEnglish, "message language (en or zh)")

	clientCmd.AddCommand(loginCmd(), registerCmd(), logoutCmd(), whoamiCmd(), employeesCmd(), departmentsCmd())
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
	}
	cmd.RunE = runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
		form := client.NewForm()
		var resp *auth.LoginResponse
		if err := form.Submit(ctx, c, func(ctx context.Context) (err error) {
			resp, err = c.Login(ctx, username, password)
			return err
		}); err != nil {
			return screenError(form.Error)
		}
		fmt.Fprintf(out, "%s (%s)\n", resp.Message, resp.User.Username)
		return nil
	})
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func registerCmd() *cobra.Command {
	var dto auth.RegisterDTO
	var email, phone string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; an administrator grants its role",
	}
	cmd.RunE = runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
		if email != "" {
			dto.Email = &email
		}
		if phone != "" {
			dto.Phone = &phone
		}
		resp, err := c.Register(ctx, dto)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (id %d)\n", resp.Message, resp.UserID)
		return nil
	})
	cmd.Flags().StringVarP(&dto.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&dto.Password, "password", "p", "", "password")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: runScreen(func(_ context.Context, c *client.Client, out io.Writer) error {
			if err := c.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(out, c.Message(i18n.MsgLoggedOut))
			return nil
		}),
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and its role",
		RunE: runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			view := client.LoadView(ctx, c, c.Me)
			if view.State == client.ViewError {
				return screenError(view.Error)
			}
			me := view.Data
			employeeID := "-"
			if me.EmployeeID != nil {
				employeeID = strconv.FormatInt(*me.EmployeeID, 10)
			}
			role := string(me.Role)
			if role == "" {
				role = "-"
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Username:\t%s\n", me.Username)
			fmt.Fprintf(tw, "Email:\t%s\n", deref(me.Email))
			fmt.Fprintf(tw, "Role:\t%s\n", role)
			fmt.Fprintf(tw, "Employee ID:\t%s\n", employeeID)
			return tw.Flush()
		}),
	}
}

func employeesCmd() *cobra.Command {
	cmd := guardedCmd("employees", "List, view, create and edit employees")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the employees you can see",
		RunE: runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			view := client.LoadView(ctx, c, c.ListEmployees)
			if view.State == client.ViewError {
				return screenError(view.Error)
			}
			if len(view.Data) == 0 {
				fmt.Fprintln(out, c.Message(i18n.MsgNoEmployees))
				return nil
			}
			printEmployees(out, view.Data)
			return nil
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one employee",
		Args:  cobra.ExactArgs(1),
	}
	get.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			view := client.LoadView(ctx, c, func(ctx context.Context) (*employee.Employee, error) {
				return c.GetEmployee(ctx, id)
			})
			if view.State == client.ViewError {
				return screenError(view.Error)
			}
			printEmployeeDetail(out, view.Data)
			return nil
		})(cmd, args)
	}

	cmd.AddCommand(list, get, employeeCreateCmd(), employeeUpdateCmd())
	return cmd
}

func employeeCreateCmd() *cobra.Command {
	var (
		dto           employee.CreateEmployeeDTO
		photoPath     string
		departmentIDs []int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an employee; the login is derived from the name",
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		optionalString(cmd, "gender", &dto.Gender)
		optionalString(cmd, "birthday", &dto.Birthday)
		optionalString(cmd, "hire-date", &dto.HireDate)
		optionalString(cmd, "position", &dto.Position)
		if err := optionalFloat(cmd, "salary", &dto.Salary); err != nil {
			return err
		}
		dto.DepartmentIDs = departmentIDs

		return runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			photo, closePhoto, err := openPhoto(photoPath)
			if err != nil {
				return err
			}
			defer closePhoto()

			form := client.NewForm()
			var resp *employee.CreateEmployeeResponse
			if err := form.Submit(ctx, c, func(ctx context.Context) (err error) {
				resp, err = c.CreateEmployee(ctx, dto, photo)
				return err
			}); err != nil {
				return screenError(form.Error)
			}
			fmt.Fprintf(out, "%s (id %d)\n", resp.Message, resp.EmployeeID)
			return nil
		})(cmd, args)
	}

	f := cmd.Flags()
	f.StringVar(&dto.Name, "name", "", "full name (required)")
	f.String("gender", "", "gender")
	f.String("birthday", "", "birthday, YYYY-MM-DD")
	f.String("hire-date", "", "hire date, YYYY-MM-DD")
	f.String("position", "", "position")
	f.String("salary", "", "salary")
	f.Int64SliceVar(&departmentIDs, "department-ids", nil, "department ids to join")
	f.StringVar(&photoPath, "photo", "", "path to a photo")
	return cmd
}

func employeeUpdateCmd() *cobra.Command {
	var photoPath string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change only the given fields of an employee",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var patch employee.EmployeePatch
		optionalString(cmd, "name", &patch.Name)
		optionalString(cmd, "gender", &patch.Gender)
		optionalString(cmd, "birthday", &patch.Birthday)
		optionalString(cmd, "hire-date", &patch.HireDate)
		optionalString(cmd, "position", &patch.Position)
		optionalString(cmd, "status", &patch.Status)
		if err := optionalFloat(cmd, "salary", &patch.Salary); err != nil {
			return err
		}

		return runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			photo, closePhoto, err := openPhoto(photoPath)
			if err != nil {
				return err
			}
			defer closePhoto()

			resp, err := c.UpdateEmployee(ctx, id, patch, photo)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, resp.Message)
			return nil
		})(cmd, args)
	}

	f := cmd.Flags()
	f.String("name", "", "full name")
	f.String("gender", "", "gender")
	f.String("birthday", "", "birthday, YYYY-MM-DD")
	f.String("hire-date", "", "hire date, YYYY-MM-DD")
	f.String("position", "", "position")
	f.String("salary", "", "salary")
	f.String("status", "", "active or inactive")
	f.StringVar(&photoPath, "photo", "", "path to a new photo")
	return cmd
}

func departmentsCmd() *cobra.Command {
	cmd := guardedCmd("departments", "List and manage departments")

	list := &cobra.Command{
		Use:   "list",
		Short: "List active departments",
		RunE: runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			view := client.LoadView(ctx, c, c.ListDepartments)
			if view.State == client.ViewError {
				return screenError(view.Error)
			}
			if len(view.Data) == 0 {
				fmt.Fprintln(out, c.Message(i18n.MsgNoDepartments))
				return nil
			}
			printDepartments(out, view.Data)
			return nil
		}),
	}

	var dto department.CreateDepartmentDTO
	var description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a department",
		RunE: runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			if description != "" {
				dto.Description = &description
			}
			resp, err := c.CreateDepartment(ctx, dto)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (id %d)\n", resp.Message, resp.DepartmentID)
			return nil
		}),
	}
	create.Flags().StringVar(&dto.Name, "name", "", "department name (required)")
	create.Flags().StringVar(&description, "description", "", "description")

	cmd.AddCommand(list, create, departmentUpdateCmd(), departmentToggleCmd(),
		memberCmd("add-member", "Put an employee in a department", (*client.Client).AddDepartmentMember),
		memberCmd("remove-member", "Take an employee out of a department", (*client.Client).RemoveDepartmentMember),
	)
	return cmd
}

func departmentUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change only the given fields of a department",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var patch department.DepartmentPatch
		optionalString(cmd, "name", &patch.Name)
		optionalString(cmd, "description", &patch.Description)
		optionalString(cmd, "status", &patch.Status)

		return runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			resp, err := c.UpdateDepartment(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, resp.Message)
			return nil
		})(cmd, args)
	}
	cmd.Flags().String("name", "", "department name")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().String("status", "", "active or inactive")
	return cmd
}

// departmentToggleCmd flips a department between active and inactive. Only
// active departments are listed, so an id missing from the list is reactivated.
func departmentToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a department between active and inactive",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			departments, err := c.ListDepartments(ctx)
			if err != nil {
				return err
			}

			next := department.StatusActive
			for _, d := range departments {
				if d.ID == id && d.IsActive() {
					next = department.StatusInactive
				}
			}

			if _, err := c.SetDepartmentStatus(ctx, id, next); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s\n", c.Message(i18n.MsgDepartmentStatusOK), next)
			return nil
		})(cmd, args)
	}
	return cmd
}

type memberAction func(c *client.Client, ctx context.Context, departmentID, employeeID int64) (*transport.MessageResponse, error)

func memberCmd(use, short string, action memberAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <department-id> <employee-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		departmentID, err := parseID(args[0])
		if err != nil {
			return err
		}
		employeeID, err := parseID(args[1])
		if err != nil {
			return err
		}
		return runScreen(func(ctx context.Context, c *client.Client, out io.Writer) error {
			resp, err := action(c, ctx, departmentID, employeeID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, resp.Message)
			return nil
		})(cmd, args)
	}
	return cmd
}

func printEmployees(out io.Writer, employees []employee.Employee) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tPOSITION\tHIRE DATE\tSTATUS")
	for _, e := range employees {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Username, deref(e.Position), deref(e.HireDate), e.Status)
	}
	_ = tw.Flush()
}

func printEmployeeDetail(out io.Writer, e *employee.Employee) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	salary := "-"
	if e.Salary != nil {
		salary = strconv.FormatFloat(*e.Salary, 'f', 2, 64)
	}
	rows := [][2]string{
		{"ID", strconv.FormatInt(e.ID, 10)},
		{"Name", e.Name},
		{"Username", e.Username},
		{"Email", deref(e.Email)},
		{"Gender", deref(e.Gender)},
		{"Birthday", deref(e.Birthday)},
		{"Hire date", deref(e.HireDate)},
		{"Position", deref(e.Position)},
		{"Salary", salary},
		{"Photo", photoURL(e.Photo)},
		{"Status", e.Status},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}

func printDepartments(out io.Writer, departments []department.Department) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tSTATUS")
	for _, d := range departments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, d.Name, deref(d.Description), d.Status)
	}
	_ = tw.Flush()
}

// photoURL points at the server's /uploads route, which sits outside the API prefix.
func photoURL(photo *string) string {
	if photo == nil || *photo == "" {
		return "-"
	}
	root := strings.TrimSuffix(strings.TrimSuffix(clientOpts.baseURL, "/"), "/api")
	return root + "/uploads/" + *photo
}

func openPhoto(path string) (*client.Photo, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open photo: %w", err)
	}
	return &client.Photo{Filename: path, Content: f}, func() { _ = f.Close() }, nil
}

func optionalString(cmd *cobra.Command, name string, dst **string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	value, _ := cmd.Flags().GetString(name)
	*dst = &value
}

func optionalFloat(cmd *cobra.Command, name string, dst **float64) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	raw, _ := cmd.Flags().GetString(name)
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid --%s: %q", name, raw)
	}
	*dst = &value
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
