/*
Package wmipp is a convenience wrapper around WMI (Windows Management
Instrumentation).  It lets you connect to a namespace, run WQL queries, and
read typed property values from the results without dealing with COM
plumbing, reference counting, or variant conversion boilerplate.

Example #1 - read a single property from the first result

	session, err := wmipp.Connect()
	if err != nil {
		return err
	}
	defer session.Close()

	result, err := session.ExecuteQuery("SELECT Name FROM Win32_Processor")
	if err != nil {
		return err
	}
	defer result.Close()

	if name, ok := wmipp.FindProperty[string](result, "Name"); ok {
		fmt.Println(name)
	}

Example #2 - decode results into Go structs

	type win32DiskDrive struct {
		Model      string
		SizeBytes  uint64 `wmi:"Size"`
	}

	drives, err := wmipp.Query[win32DiskDrive](session, "SELECT * FROM Win32_DiskDrive")

Property conversions never fail with an error: a property that is missing,
null, or not representable as the requested type yields an absent result
(ok == false).  Only connection establishment and query submission return
errors.

Sessions are reference counted.  Every QueryResult and Object derived from a
Session keeps the underlying connection alive until its own Close, so results
stay valid even after the Session handle itself has been closed.  COM calls
are serialized per session; prefer using a session from the goroutine that
created it.
*/
package wmipp
